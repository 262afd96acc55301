package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/hackgods/spa-bookings/internal/booking"
)

// SimConfig is read from SIM_* variables, e.g. SIM_WORKERS=20.
type SimConfig struct {
	APIBaseURL  string        `envconfig:"API_BASE_URL" default:"http://localhost:8080"`
	Duration    time.Duration `envconfig:"DURATION" default:"30s"`
	Workers     int           `envconfig:"WORKERS" default:"10"`
	Therapists  int           `envconfig:"THERAPISTS" default:"3"`
	SlotHours   int           `envconfig:"SLOT_HOURS" default:"8"`
	CancelRatio float64       `envconfig:"CANCEL_RATIO" default:"0.1"`
	ReadRatio   float64       `envconfig:"READ_RATIO" default:"0.2"`
	Day         string        `envconfig:"DAY"`
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[min2(len(latencies)*50/100, len(latencies)-1)]
	p95 = latencies[min2(len(latencies)*95/100, len(latencies)-1)]
	return avg, min, max, p50, p95
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

type Metrics struct {
	Booking OperationMetrics
	Cancel  OperationMetrics
	List    OperationMetrics
}

type createdPool struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (p *createdPool) add(id uuid.UUID) {
	p.mu.Lock()
	p.ids = append(p.ids, id)
	p.mu.Unlock()
}

// take removes and returns a random id.
func (p *createdPool) take(rng *rand.Rand) (uuid.UUID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ids) == 0 {
		return uuid.Nil, false
	}
	i := rng.Intn(len(p.ids))
	id := p.ids[i]
	p.ids[i] = p.ids[len(p.ids)-1]
	p.ids = p.ids[:len(p.ids)-1]
	return id, true
}

type Simulator struct {
	config     SimConfig
	therapists []string
	day        time.Time
	client     *http.Client
	created    createdPool
	metrics    Metrics
	log        *slog.Logger
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.String("service", "simulate"))

	_ = godotenv.Load()

	var cfg SimConfig
	if err := envconfig.Process("SIM", &cfg); err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := validateConfig(cfg); err != nil {
		log.Error("invalid config", slog.Any("err", err))
		os.Exit(1)
	}

	day := time.Now().UTC().AddDate(0, 0, 30).Truncate(24 * time.Hour)
	if cfg.Day != "" {
		parsed, err := time.Parse("2006-01-02", cfg.Day)
		if err != nil {
			log.Error("invalid SIM_DAY", slog.Any("err", err))
			os.Exit(1)
		}
		day = parsed
	}

	sim := &Simulator{
		config: cfg,
		day:    day,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
	// a run-unique suffix keeps repeated runs from colliding with each other
	suffix := strings.Split(uuid.NewString(), "-")[0]
	for i := 0; i < cfg.Therapists; i++ {
		sim.therapists = append(sim.therapists, fmt.Sprintf("%s-%s", gofakeit.FirstName(), suffix))
	}

	log.Info("simulation starting",
		slog.Duration("duration", cfg.Duration),
		slog.Int("workers", cfg.Workers),
		slog.Int("therapists", cfg.Therapists),
		slog.String("day", day.Format("2006-01-02")),
	)

	sim.Run()
	sim.PrintReport()

	overlaps, err := sim.Verify(context.Background())
	if err != nil {
		log.Error("verification failed", slog.Any("err", err))
		os.Exit(1)
	}
	if len(overlaps) > 0 {
		for _, o := range overlaps {
			log.Error("overlapping bookings", slog.String("pair", o))
		}
		os.Exit(2)
	}
	log.Info("no overlapping bookings found")
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return errors.New("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return errors.New("SIM_DURATION must be > 0")
	}
	if cfg.Therapists <= 0 {
		return errors.New("SIM_THERAPISTS must be > 0")
	}
	if cfg.SlotHours <= 0 || cfg.SlotHours > 24 {
		return errors.New("SIM_SLOT_HOURS must be between 1 and 24")
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.CancelRatio:
				s.doCancel(ctx, rng)
			case r < s.config.CancelRatio+s.config.ReadRatio:
				s.doList(ctx)
			default:
				s.doBooking(ctx, rng)
			}
		}
	}
}

// doBooking proposes a random window on a 15 minute grid so that requests
// from different workers overlap often.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	therapist := s.therapists[rng.Intn(len(s.therapists))]
	quarter := rng.Intn(s.config.SlotHours * 4)
	start := s.day.Add(9*time.Hour + time.Duration(quarter)*15*time.Minute)
	minutes := []int{30, 45, 60, 90, 120}[rng.Intn(5)]

	body, _ := json.Marshal(map[string]any{
		"service":     "Simulated Massage",
		"therapyName": therapist,
		"duration":    fmt.Sprintf("%dmin", minutes),
		"price":       "$50",
		"name":        gofakeit.Name(),
		"phone":       gofakeit.Phone(),
		"datetime":    start.Format("2006-01-02T15:04"),
	})

	begin := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(begin)
	if err != nil {
		if ctx.Err() == nil {
			s.metrics.Booking.Record(latency, false, false)
		}
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		var out struct {
			ID uuid.UUID `json:"id"`
		}
		if json.NewDecoder(resp.Body).Decode(&out) == nil && out.ID != uuid.Nil {
			s.created.add(out.ID)
		}
		s.metrics.Booking.Record(latency, true, false)
	case http.StatusConflict:
		s.metrics.Booking.Record(latency, false, true)
	default:
		s.metrics.Booking.Record(latency, false, false)
	}
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.created.take(rng)
	if !ok {
		return
	}

	begin := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodDelete, s.config.APIBaseURL+"/bookings/"+id.String(), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(begin)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	s.metrics.Cancel.Record(latency, resp.StatusCode == http.StatusOK, false)
}

func (s *Simulator) doList(ctx context.Context) {
	begin := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/bookings", nil)

	resp, err := s.client.Do(req)
	latency := time.Since(begin)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	s.metrics.List.Record(latency, resp.StatusCode == http.StatusOK, false)
}

type listedBooking struct {
	ID              uuid.UUID `json:"id"`
	TherapistName   string    `json:"therapistName"`
	DurationMinutes int       `json:"durationMinutes"`
	StartTime       string    `json:"startTime"`
}

// Verify fetches all bookings and reports every overlapping pair among the
// simulated therapists.
func (s *Simulator) Verify(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/bookings", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list bookings: status %d", resp.StatusCode)
	}

	var listed []listedBooking
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}

	ours := make(map[string]bool, len(s.therapists))
	for _, t := range s.therapists {
		ours[t] = true
	}

	byTherapist := make(map[string][]booking.Booking)
	for _, l := range listed {
		if !ours[l.TherapistName] {
			continue
		}
		start, err := time.Parse(booking.TimeLayout, l.StartTime)
		if err != nil {
			return nil, fmt.Errorf("booking %s: %w", l.ID, err)
		}
		byTherapist[l.TherapistName] = append(byTherapist[l.TherapistName], booking.Booking{
			ID:              l.ID,
			TherapistName:   l.TherapistName,
			DurationMinutes: l.DurationMinutes,
			StartTime:       start,
		})
	}

	var overlaps []string
	for therapist, list := range byTherapist {
		sort.Slice(list, func(i, j int) bool { return list[i].StartTime.Before(list[j].StartTime) })
		for i := range list {
			for j := i + 1; j < len(list) && list[j].StartTime.Before(list[i].EndTime()); j++ {
				if booking.Overlaps(list[i].Window(), list[j].Window()) {
					overlaps = append(overlaps, fmt.Sprintf("%s: %s and %s", therapist, list[i].ID, list[j].ID))
				}
			}
		}
	}
	return overlaps, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Therapists: %s\n", strings.Join(s.therapists, ", "))
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("List", &s.metrics.List)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}
