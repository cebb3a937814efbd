// netra is a terminal client for the clinic edge functions: list and edit
// records, record payments, and run AI fundus triage, all through the same
// cache and mutation layers the app uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/devSoft1007/netraAI-sub000/internal/appointments"
	"github.com/devSoft1007/netraAI-sub000/internal/config"
	"github.com/devSoft1007/netraAI-sub000/internal/diagnoses"
	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
	"github.com/devSoft1007/netraAI-sub000/internal/gateway"
	"github.com/devSoft1007/netraAI-sub000/internal/notify"
	"github.com/devSoft1007/netraAI-sub000/internal/patients"
	"github.com/devSoft1007/netraAI-sub000/internal/payments"
	"github.com/devSoft1007/netraAI-sub000/internal/querycache"
	"github.com/devSoft1007/netraAI-sub000/internal/session"
	"github.com/devSoft1007/netraAI-sub000/pkg/logging"
)

const usage = `usage: netra <command> [flags]

commands:
  patients list        list patients (-page, -limit, -search)
  patients get <id>    show one patient
  patients add         create a patient (-first, -last, -email, -phone)
  appointments list    list appointments (-from, -to, -doctor)
  payments add         record a payment (-patient, -amount, -insurance)
  diagnose <image>     run AI triage on a fundus image file or URL
`

type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	cache    *querycache.Client
	notifier notify.Notifier

	patients     *patients.Service
	appointments *appointments.Service
	payments     *payments.Service
	diagnoses    *diagnoses.Service
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "netra:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.EdgeBaseURL == "" {
		return fmt.Errorf("EDGE_BASE_URL is not set")
	}
	logger := logging.New(cfg.LogLevel)

	a := newApp(cfg, logger)
	defer a.shutdown()

	ctx := context.Background()
	switch args[0] {
	case "patients":
		return a.runPatients(ctx, args[1:])
	case "appointments":
		return a.runAppointments(ctx, args[1:])
	case "payments":
		return a.runPayments(ctx, args[1:])
	case "diagnose":
		return a.runDiagnose(ctx, args[1:])
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newApp(cfg *config.Config, logger *logging.Logger) *app {
	opts := querycache.Options{
		StaleTime: cfg.CacheStaleTime,
		MaxIdle:   cfg.CacheMaxIdle,
		Metrics:   querycache.NewMetrics(prometheus.NewRegistry()),
		Logger:    logger,
	}
	if cfg.RedisAddr != "" {
		opts.Snapshots = querycache.NewRedisSnapshots(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}), "", 0)
	}
	cache := querycache.NewClient(opts)
	if opts.Snapshots != nil {
		if err := cache.RestoreSnapshot(context.Background()); err != nil {
			logger.Warn("snapshot restore failed", "error", err)
		}
	}

	tokens := session.NewStore(cfg.EdgeBearerToken, nil)
	gw := gateway.NewClient(cfg.EdgeBaseURL, cfg.EdgeAnonKey, tokens, logger)
	gw.SetTimeout(cfg.HTTPTimeout)

	notifier := notify.NewLogNotifier(logger)
	return &app{
		cfg:          cfg,
		logger:       logger,
		cache:        cache,
		notifier:     notifier,
		patients:     patients.NewService(gw, cache, notifier),
		appointments: appointments.NewService(gw, cache, notifier),
		payments:     payments.NewService(gw, cache, notifier),
		diagnoses:    diagnoses.NewService(gw, cache, notifier),
	}
}

func (a *app) shutdown() {
	if a.cfg.RedisAddr != "" {
		if err := a.cache.SaveSnapshot(context.Background()); err != nil {
			a.logger.Warn("snapshot save failed", "error", err)
		}
	}
	a.cache.Close()
}

func (a *app) runPatients(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("patients: expected list, get, or add")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("patients list", flag.ContinueOnError)
		page := fs.Int("page", 1, "page number")
		limit := fs.Int("limit", 20, "page size")
		search := fs.String("search", "", "name/email search")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		list, err := a.patients.List(ctx, patients.ListParams{Page: *page, Limit: *limit, Search: *search})
		if err != nil {
			return err
		}
		for _, p := range list.Patients {
			fmt.Printf("%s  %-24s %-28s %s\n", p.ID, p.FirstName+" "+p.LastName, p.Email, p.Status)
		}
		fmt.Printf("page %d/%d (%d total)\n", list.Pagination.Page, list.Pagination.TotalPages, list.Count)
		return nil
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("patients get: missing id")
		}
		p, err := a.patients.Get(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s %s <%s>\nphone: %s\nborn:  %s\n", p.FirstName, p.LastName, p.Email, p.Phone, p.BirthDate)
		return nil
	case "add":
		fs := flag.NewFlagSet("patients add", flag.ContinueOnError)
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		email := fs.String("email", "", "email")
		phone := fs.String("phone", "", "phone")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		p, err := a.patients.Add(ctx, patients.AddInput{
			FirstName: *first,
			LastName:  *last,
			Email:     *email,
			Phone:     *phone,
		})
		if err != nil {
			return err
		}
		fmt.Println("created", p.ID)
		return nil
	default:
		return fmt.Errorf("patients: unknown subcommand %q", args[0])
	}
}

func (a *app) runAppointments(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "list" {
		return fmt.Errorf("appointments: expected list")
	}
	fs := flag.NewFlagSet("appointments list", flag.ContinueOnError)
	from := fs.String("from", "", "start date (YYYY-MM-DD)")
	to := fs.String("to", "", "end date (YYYY-MM-DD)")
	doctor := fs.String("doctor", "", "doctor id")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	params := appointments.ListParams{DoctorID: *doctor}
	var err error
	if *from != "" {
		if params.From, err = edgeapi.ParseDate(*from); err != nil {
			return err
		}
	}
	if *to != "" {
		if params.To, err = edgeapi.ParseDate(*to); err != nil {
			return err
		}
	}
	list, err := a.appointments.List(ctx, params)
	if err != nil {
		return err
	}
	for _, apt := range list.Appointments {
		fmt.Printf("%s  %s %s-%s  patient=%s  %s\n",
			apt.ID, apt.Date, apt.StartTime, apt.EndTime, apt.PatientID, apt.Status)
	}
	fmt.Printf("page %d/%d (%d total)\n", list.Pagination.Page, list.Pagination.TotalPages, list.Count)
	return nil
}

func (a *app) runPayments(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "add" {
		return fmt.Errorf("payments: expected add")
	}
	fs := flag.NewFlagSet("payments add", flag.ContinueOnError)
	patient := fs.String("patient", "", "patient id")
	amount := fs.Float64("amount", 0, "total amount")
	insurance := fs.Float64("insurance", 0, "insurance-covered amount")
	method := fs.String("method", "card", "payment method")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	in := payments.AddInput{
		PatientID: *patient,
		Amount:    *amount,
		Method:    *method,
	}
	if *insurance > 0 {
		in.InsuranceClaim = true
		in.InsuranceAmount = *insurance
	}
	p, err := a.payments.Add(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("recorded %s: total %.2f, patient owes %.2f\n", p.ID, p.Amount, p.PatientAmount)
	return nil
}

func (a *app) runDiagnose(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("diagnose: missing image path or URL")
	}
	source := args[0]

	var res *diagnoses.Result
	var err error
	if isURL(source) {
		res, err = a.diagnoses.DiagnoseURL(ctx, source)
	} else {
		f, openErr := os.Open(source)
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		res, err = a.diagnoses.Diagnose(ctx, filepath.Base(source), f)
	}
	if err != nil {
		return err
	}

	printFinding("diabetic retinopathy", res.DiabeticRetinopathy)
	printFinding("glaucoma", res.Glaucoma)
	fmt.Printf("inference: %dms (%s, model %s)\n",
		res.Meta.InferenceTimeMS, res.Meta.InputSource, res.Meta.ModelVersion)
	return nil
}

func printFinding(condition string, f diagnoses.Finding) {
	fmt.Printf("%-22s %s (%.1f%% confidence, severity %d)\n  %s\n",
		condition+":", f.Prediction, f.Confidence*100, f.SeverityLevel, f.DoctorNote)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
