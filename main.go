package main

import (
	"flag"
	"log"
	"net/http"
	"time"
)

var (
	addrFlag      = flag.String("addr", defaultAddr, "http listen address (e.g. :8080)")
	maxUploadFlag = flag.Int64("max-upload", defaultMaxUpload, "per-request upload cap in bytes")
	ttlFlag       = flag.Duration("session-ttl", defaultSessionTTL, "idle session lifetime")
)

func main() {
	flag.Parse()

	sessions := NewSessionStore(*ttlFlag)
	sessions.StartSweeper(make(chan struct{}))

	mux := newMux(sessions, *maxUploadFlag)

	log.Printf("Fusion PDF at http://localhost%v (max upload %d MB, session ttl %v)",
		*addrFlag, *maxUploadFlag>>20, *ttlFlag)
	srv := &http.Server{
		Addr:              *addrFlag,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}
