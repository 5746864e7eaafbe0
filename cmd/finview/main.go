package main

import (
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/cors"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"finview/config"
	"finview/handlers"
	"finview/internal/database"
	"finview/internal/player"
	"finview/services/downloads"
	"finview/services/jellyfin"
	"finview/services/mediainfo"
	"finview/services/playback"
	"finview/utils"
)

func main() {
	dataDir := flag.String("data-dir", "data", "directory for settings, database and logs")
	mpvBinary := flag.String("mpv", "mpv", "mpv executable used for playback")
	flag.Parse()

	cfgManager := config.NewManager(filepath.Join(*dataDir, "settings.json"))
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	setupLogging(filepath.Join(*dataDir, settings.LogDir))

	if settings.Server.BaseURL == "" {
		log.Fatal("server base url is not configured; edit settings.json")
	}

	db, err := database.NewDB(database.Config{
		DatabasePath: filepath.Join(*dataDir, "finview.db"),
	})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	client := jellyfin.NewClient(settings.Server.BaseURL, settings.Server.AccessToken, settings.Server.DeviceID)

	downloadsDir := filepath.Join(*dataDir, settings.DownloadsDir)
	if err := os.MkdirAll(downloadsDir, 0o755); err != nil {
		log.Fatalf("create downloads dir: %v", err)
	}
	store := downloads.NewStore(db.Downloads, afero.NewBasePathFs(afero.NewOsFs(), downloadsDir))

	mediaInfo := mediainfo.NewService(client, store)
	playbackSvc := playback.NewService(client, settings.Playback, func() playback.Player {
		return player.NewMPV(*mpvBinary)
	})

	detailsHandler := handlers.NewDetailsHandler(mediaInfo)
	playbackHandler := handlers.NewPlaybackHandler(playbackSvc)
	downloadsHandler := handlers.NewDownloadsHandler(store)

	limiter := utils.NewRateLimiter(rate.Limit(25), 50)
	defer limiter.Stop()

	r := utils.NewRouter()
	r.Use(limiter.Middleware())
	r.HandleFunc("/api/items/{itemID}/details", detailsHandler.GetDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/items/{itemID}/played", detailsHandler.SetPlayed).Methods(http.MethodPost)
	r.HandleFunc("/api/items/{itemID}/favorite", detailsHandler.SetFavorite).Methods(http.MethodPost)
	r.HandleFunc("/api/items/download", detailsHandler.RequestDownload).Methods(http.MethodPost)
	r.HandleFunc("/api/items/download", detailsHandler.DeleteDownload).Methods(http.MethodDelete)
	r.HandleFunc("/api/playback/start", playbackHandler.Start).Methods(http.MethodPost)
	r.HandleFunc("/api/playback/stop", playbackHandler.Stop).Methods(http.MethodPost)
	r.HandleFunc("/api/playback/state", playbackHandler.GetState).Methods(http.MethodGet)
	r.HandleFunc("/api/downloads", downloadsHandler.List).Methods(http.MethodGet)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:    settings.ListenAddr,
		Handler: corsHandler.Handler(r),
	}

	log.Printf("[finview] listening on %s (server: %s)", settings.ListenAddr, settings.Server.BaseURL)
	if err := server.ListenAndServe(); err != nil {
		// Make sure an in-flight session still gets its stop report.
		playbackSvc.Stop()
		log.Fatal(err)
	}
}

// setupLogging sends log output to stderr and a size-rotated file.
func setupLogging(logDir string) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Printf("[finview] create log dir: %v", err)
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "finview.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
}
