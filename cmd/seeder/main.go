package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fnanalytics/stats-api/internal/handlers"
	"github.com/fnanalytics/stats-api/internal/models"
)

var weaponPool = []string{"Assault Rifle", "Pump Shotgun", "SMG", "Sniper Rifle", "Pistol"}

func main() {
	apiURL := flag.String("url", "http://localhost:8080/api/v1/ingest/events", "ingest endpoint")
	window := flag.String("window", "epicgames_S29_FNCS_Major1_EU", "event window (tournament) id")
	matches := flag.Int("matches", 1, "number of matches to generate")
	players := flag.Int("players", 24, "players per match")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	flag.Parse()

	rng := rand.New(rand.NewPCG(*seed, *seed>>1))
	client := &http.Client{Timeout: 10 * time.Second}

	for i := 0; i < *matches; i++ {
		events := generateMatch(rng, *window, uuid.NewString(), *players)
		for _, chunk := range encodeChunks(events, handlers.MaxBodySize/2) {
			if err := post(client, *apiURL, chunk); err != nil {
				log.Fatalf("Failed to ingest match: %v", err)
			}
		}
		fmt.Printf("Seeded match %d/%d (%d records)\n", i+1, *matches, len(events))
	}
}

// generateMatch produces the roster followed by combat telemetry for one match.
// Every actor appears in the roster, and actor ids are unique per match only.
func generateMatch(rng *rand.Rand, window, matchID string, players int) []models.TelemetryEvent {
	events := make([]models.TelemetryEvent, 0, players*8)

	actors := make([]string, players)
	for i := range actors {
		actors[i] = fmt.Sprintf("%08X", rng.Uint32())
		events = append(events, models.TelemetryEvent{
			Type:          models.TelemetryMatchPlayer,
			MatchID:       matchID,
			ActorID:       actors[i],
			EpicID:        fmt.Sprintf("epic-%04d", i),
			EpicUsername:  fmt.Sprintf("Player%02d", i),
			EventWindowID: window,
		})
	}

	alive := append([]string(nil), actors...)
	clock := 0.0
	for len(alive) > 1 {
		clock += 5 + rng.Float64()*55
		attacker := alive[rng.IntN(len(alive))]
		victimIdx := rng.IntN(len(alive))
		if alive[victimIdx] == attacker {
			continue
		}
		victim := alive[victimIdx]

		var weapon *string
		if rng.IntN(10) > 0 {
			w := weaponPool[rng.IntN(len(weaponPool))]
			weapon = &w
		}
		distance := float64(rng.IntN(40000))

		for hits := 1 + rng.IntN(4); hits > 0; hits-- {
			events = append(events, models.TelemetryEvent{
				Type:            models.TelemetryDamage,
				MatchID:         matchID,
				ActorID:         attacker,
				RecipientID:     victim,
				WeaponType:      weapon,
				GameTimeSeconds: clock - float64(hits),
				Distance:        distance,
				Amount:          float64(10 + rng.IntN(90)),
				EventWindowID:   window,
			})
		}
		events = append(events, models.TelemetryEvent{
			Type:            models.TelemetryElimination,
			MatchID:         matchID,
			ActorID:         attacker,
			RecipientID:     victim,
			WeaponType:      weapon,
			GameTimeSeconds: clock,
			Distance:        distance,
			EventWindowID:   window,
		})

		alive = append(alive[:victimIdx], alive[victimIdx+1:]...)
	}

	return events
}

// encodeChunks renders NDJSON bodies no larger than limit bytes
func encodeChunks(events []models.TelemetryEvent, limit int) [][]byte {
	var chunks [][]byte
	var buf bytes.Buffer
	for i := range events {
		line, err := json.Marshal(&events[i])
		if err != nil {
			continue
		}
		if buf.Len() > 0 && buf.Len()+len(line)+1 > limit {
			chunks = append(chunks, append([]byte(nil), buf.Bytes()...))
			buf.Reset()
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.Bytes())
	}
	return chunks
}

func post(client *http.Client, url string, body []byte) error {
	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("status %s: %s", resp.Status, respBody)
	}
	return nil
}
