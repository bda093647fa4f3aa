package server

import (
	"crypto/tls"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"

	"github.com/sawtline/callsight/handlers"
)

type Config struct {
	Domains      []string
	CertCacheDir string
	HTTPPort     string
	HTTPSPort    string
}

func SetupRoutes(
	upload *handlers.UploadDocumentHandler,
	query *handlers.QueryDocumentsHandler,
	transcribe *handlers.TranscribeHandler,
	analysis *handlers.AnalysisHandler,
) *mux.Router {
	r := mux.NewRouter()

	// Document ingestion and retrieval-augmented answering
	r.Handle("/api/documents/upload", upload).Methods("POST")
	r.Handle("/api/documents/query", query).Methods("POST")

	// Call transcription and transcript analyses
	r.Handle("/api/transcribe", transcribe).Methods("POST")
	r.HandleFunc("/api/summarize-conversation", analysis.SummarizeConversation).Methods("POST")
	r.HandleFunc("/api/analyze-events", analysis.AnalyzeEvents).Methods("POST")
	r.HandleFunc("/api/analyze-checklist", analysis.AnalyzeChecklist).Methods("POST")
	r.HandleFunc("/api/label-segments", analysis.LabelSegments).Methods("POST")

	return r
}

// ServeProduction builds the server when we operate in a production environment.
func ServeProduction(n *negroni.Negroni, cfg Config) {
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.Domains...),
		Cache:      autocert.DirCache(cfg.CertCacheDir),
	}

	// Listen for HTTP requests on port 80 in a new goroutine. Use
	// autocertManager.HTTPHandler(nil) as the handler. This will send ACME
	// "http-01" challenge responses as necessary, and 302 redirect all other
	// requests to HTTPS.
	go func() {
		srv := &http.Server{
			Addr:         ":80",
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		err := srv.ListenAndServe()
		log.Fatal(err)
	}()

	tlsConfig := &tls.Config{
		GetCertificate:           autocertManager.GetCertificate,
		PreferServerCipherSuites: true,
		CurvePreferences:         []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPSPort,
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
	}

	err := srv.ListenAndServeTLS("", "") // Key and cert provided automatically by autocert.
	log.Fatal(err)
}

// ServeDevelopment starts the server when we operate in a dev environment.
func ServeDevelopment(s *http.Server) {
	log.Fatal(s.ListenAndServe())
}
