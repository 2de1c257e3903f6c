package main

import (
	"bufio"
	"flag"
	"os"

	"github.com/LdDl/mot-regions/mot"
	"github.com/LdDl/mot-regions/trackstore"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"
)

var (
	configPath = flag.String("config", "", "Path to JSON configuration file")
	patience   = flag.Int("patience", -1, "Max number of consecutive frames without update (overrides config)")
	minArea    = flag.Int("min-area", -1, "Min area of predicted region (overrides config)")
	noise      = flag.Float64("noise", 0, "Process noise factor (overrides config)")
	estimator  = flag.String("estimator", "", "Estimator: 'constant-velocity' or 'center' (overrides config)")
	dbPath     = flag.String("db", "", "Path to SQLite database for predictions and metrics. Empty means no persistence")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	minSize    = flag.Int("min-size", 10, "Measured regions with width or height less than this value are discarded")
	warmup     = flag.Int("warmup", 0, "Number of first frames passed through without tracking")
	maxObjects = flag.Int("max-objects", 30, "Frames with more regions are treated as noise and passed through. Non-positive value disables the check")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := buildConfig(log)
	if err != nil {
		log.WithError(err).Fatal("Can't prepare configuration")
	}
	cfg.Logger = log

	app, err := newApplication(cfg, *minSize, *warmup, *maxObjects)
	if err != nil {
		log.WithError(err).Fatal("Can't create tracker")
	}
	if *dbPath != "" {
		store, err := trackstore.Open(*dbPath)
		if err != nil {
			log.WithError(err).Fatal("Can't open database")
		}
		defer store.Close()
		if err := app.attachStore(store); err != nil {
			log.WithError(err).Fatal("Can't register run")
		}
	}
	log.WithFields(logrus.Fields{
		"session":   app.tracker.SessionID().String(),
		"estimator": cfg.Estimator.String(),
		"patience":  cfg.LostTrackPatience,
		"min_area":  cfg.MinPredictionArea,
		"noise":     cfg.NoiseFactor,
	}).Info("Tracking started")

	s := bufio.NewScanner(os.Stdin)
	bufsize := 10 << 20
	buf := make([]byte, bufsize)
	s.Buffer(buf, bufsize)
	out := bufio.NewWriter(os.Stdout)
	for s.Scan() {
		reqdata := s.Bytes()
		if len(reqdata) == 0 {
			continue
		}
		response, err := app.processLine(reqdata)
		if err != nil {
			log.WithError(err).WithField("line", app.lines).Error("Can't process frame")
			continue
		}
		if err := writeLine(out, response); err != nil {
			log.WithError(err).Error("Can't write output")
			break
		}
	}
	if err := s.Err(); err != nil {
		log.WithError(err).Error("Can't read input")
	}

	log.WithFields(logrus.Fields{
		"frames":  app.tracker.Frame(),
		"scored":  app.metrics.Frames(),
		"metrics": app.metrics.Result().String(),
	}).Info(app.tracker.Statistics())
}

// buildConfig loads configuration file (if any) and applies command line overrides
func buildConfig(log *logrus.Logger) (mot.TrackerSetConfig, error) {
	cfg := mot.DefaultTrackerSetConfig()
	if *configPath != "" {
		fc, err := mot.LoadFileConfig(*configPath)
		if err != nil {
			return cfg, err
		}
		if err := fc.Apply(&cfg); err != nil {
			return cfg, err
		}
		if fc.LogLevel != nil && !*debug {
			level, _ := logrus.ParseLevel(*fc.LogLevel)
			log.SetLevel(level)
		}
	}
	if *patience >= 0 {
		cfg.LostTrackPatience = *patience
	}
	if *minArea >= 0 {
		cfg.MinPredictionArea = *minArea
	}
	if *noise > 0 {
		cfg.NoiseFactor = *noise
	}
	if *estimator != "" {
		kind, err := mot.ParseEstimatorKind(*estimator)
		if err != nil {
			return cfg, err
		}
		cfg.Estimator = kind
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func writeLine(out *bufio.Writer, line []byte) error {
	if _, err := out.Write(line); err != nil {
		return err
	}
	if err := out.WriteByte('\n'); err != nil {
		return err
	}
	return out.Flush()
}

// configSummary returns settings of the tracker set as JSON object
func configSummary(cfg mot.TrackerSetConfig) (string, error) {
	fields := []struct {
		path  string
		value interface{}
	}{
		{"lost_track_patience", cfg.LostTrackPatience},
		{"min_prediction_area", cfg.MinPredictionArea},
		{"noise_factor", cfg.NoiseFactor},
		{"estimator", cfg.Estimator.String()},
		{"color_seed", cfg.ColorSeed},
	}
	summary := "{}"
	for _, field := range fields {
		var err error
		summary, err = sjson.Set(summary, field.path, field.value)
		if err != nil {
			return "", err
		}
	}
	return summary, nil
}
