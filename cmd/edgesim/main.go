// edgesim is a local stand-in for the hosted edge functions and the AI
// inference endpoint, for developing the client without live credentials.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/devSoft1007/netraAI-sub000/internal/config"
	"github.com/devSoft1007/netraAI-sub000/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	port := os.Getenv("EDGESIM_PORT")
	if port == "" {
		port = "8090"
	}

	s := newServer(logger)
	s.seed()

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("edgesim listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("edgesim stopped")
}

// seed loads a small data set so list endpoints are non-empty on boot.
func (s *server) seed() {
	doc := s.store.insert("doctors", record{
		"display_name": "Dr. Amara Okafor",
		"specialty":    "ophthalmology",
		"email":        "amara.okafor@example.com",
		"active":       true,
	})
	s.store.insert("doctors", record{
		"first_name": "Chen",
		"last_name":  "Wei",
		"specialty":  "optometry",
		"active":     true,
	})
	pat := s.store.insert("patients", record{
		"first_name":    "Janet",
		"last_name":     "Mwangi",
		"email":         "janet.mwangi@example.com",
		"phone":         "+254700000001",
		"date_of_birth": "1984-03-12",
		"status":        "active",
	})
	proc := s.store.insert("procedures", record{
		"name":         "Fundus photography",
		"code":         "92250",
		"price":        120.5,
		"duration_min": 15,
		"active":       true,
	})
	s.store.insert("appointments", record{
		"patient_id":       pat["id"],
		"doctor_id":        doc["id"],
		"appointment_date": time.Now().UTC().Format("2006-01-02"),
		"start_time":       "09:00",
		"end_time":         "09:30",
		"reason":           "annual screening",
		"status":           "scheduled",
	})
	s.store.insert("payments", record{
		"patient_id":       pat["id"],
		"amount":           500.0,
		"insurance_claim":  true,
		"insurance_amount": 200.0,
		"patient_amount":   300.0,
		"method":           "card",
		"status":           "recorded",
		"payment_date":     time.Now().UTC().Format("2006-01-02"),
	})
	s.store.insert("invoices", record{
		"number":     "INV-0001",
		"patient_id": pat["id"],
		"lines": []any{map[string]any{
			"procedure_id": proc["id"],
			"description":  proc["name"],
			"quantity":     1,
			"unit_price":   proc["price"],
		}},
		"total":          proc["price"],
		"patient_amount": proc["price"],
		"status":         "open",
		"issued_at":      time.Now().UTC().Format("2006-01-02"),
	})
}
