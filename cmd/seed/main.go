package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/hackgods/spa-bookings/internal/booking"
	"github.com/hackgods/spa-bookings/internal/config"
	"github.com/hackgods/spa-bookings/internal/db"
	redisclient "github.com/hackgods/spa-bookings/internal/redis"
	"github.com/hackgods/spa-bookings/internal/testimonial"
)

var services = []struct {
	name  string
	price int64 // per hour
}{
	{"Swedish Massage", 60},
	{"Deep Tissue Massage", 75},
	{"Thai Massage", 55},
	{"Hot Stone Therapy", 85},
	{"Aromatherapy", 65},
	{"Reflexology", 50},
	{"Facial", 70},
}

var durations = []int{30, 60, 90, 120}

func main() {
	therapists := flag.Int("therapists", 6, "number of therapists")
	days := flag.Int("days", 7, "days of bookings to create, starting tomorrow")
	reviews := flag.Int("testimonials", 25, "number of testimonials")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.String("service", "seed"))

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		log.Error("connect postgres failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("migration failed", slog.Any("err", err))
		os.Exit(1)
	}

	// seeding is single-process, so the in-memory lock is enough
	locker := redisclient.NewLocalTherapistLocker(cfg.LockWait)
	bookings := booking.NewService(booking.NewPgRepository(pool), locker, nil, cfg, log)

	created, conflicts, err := seedBookings(ctx, bookings, cfg.Location(), *therapists, *days)
	if err != nil {
		log.Error("seed bookings failed", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("bookings seeded", slog.Int("created", created), slog.Int("conflicts", conflicts))

	if err := seedTestimonials(ctx, testimonial.NewService(testimonial.NewPgRepository(pool)), *reviews); err != nil {
		log.Error("seed testimonials failed", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("testimonials seeded", slog.Int("count", *reviews))
}

// seedBookings fills each therapist's day from 09:00 with back to back or gapped
// appointments until 18:00.
func seedBookings(ctx context.Context, svc *booking.Service, loc *time.Location, therapists, days int) (created, conflicts int, err error) {
	names := make([]string, therapists)
	for i := range names {
		names[i] = gofakeit.FirstName()
	}

	today := booking.WallClock(time.Now().In(loc)).Truncate(24 * time.Hour)

	for d := 1; d <= days; d++ {
		day := today.AddDate(0, 0, d)
		for _, therapist := range names {
			cursor := day.Add(9 * time.Hour)
			closing := day.Add(18 * time.Hour)

			for {
				minutes := durations[gofakeit.Number(0, len(durations)-1)]
				if cursor.Add(time.Duration(minutes) * time.Minute).After(closing) {
					break
				}
				svcDef := services[gofakeit.Number(0, len(services)-1)]

				_, err := svc.Create(ctx, booking.CreateInput{
					Service:         svcDef.name,
					TherapistName:   therapist,
					DurationMinutes: minutes,
					Price:           decimal.NewFromInt(svcDef.price * int64(minutes)).Div(decimal.NewFromInt(60)).Round(2),
					CustomerName:    gofakeit.Name(),
					CustomerPhone:   gofakeit.Phone(),
					StartTime:       cursor,
				})
				var conflict *booking.ConflictError
				switch {
				case err == nil:
					created++
				case errors.As(err, &conflict):
					// rerunning the seed on the same days lands here
					conflicts++
				default:
					return created, conflicts, err
				}

				gap := time.Duration(gofakeit.Number(0, 2)*30) * time.Minute
				cursor = cursor.Add(time.Duration(minutes)*time.Minute + gap)
			}
		}
	}
	return created, conflicts, nil
}

func seedTestimonials(ctx context.Context, svc *testimonial.Service, count int) error {
	for i := 0; i < count; i++ {
		_, err := svc.Create(ctx, testimonial.CreateInput{
			ReviewerName:   gofakeit.Name(),
			ReviewerEmail:  gofakeit.Email(),
			ReviewTitle:    gofakeit.Sentence(4),
			ReviewText:     gofakeit.Sentence(16),
			Rating:         gofakeit.Number(testimonial.MinRating, testimonial.MaxRating),
			GenuineOpinion: true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
