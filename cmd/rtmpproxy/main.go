// rtmpproxy splices one RTMP client to the origin its tcUrl names,
// recording the FLV payload of each play and a reproducible downloader
// command line for it.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/relaywire/rtmpsplice/internal/rtmpcore"
)

func main() {
	_ = godotenv.Load()

	port := flag.Int("port", envInt("RTMP_PORT", 1935), "TCP port to listen on")
	verbose := flag.Bool("z", false, "verbose (debug) logging")
	workDir := flag.String("dir", envOr("RTMP_PROXY_WORKDIR", "."), "directory output files and Command.txt are written to")
	certFile := flag.String("c", os.Getenv("SSL_CERT"), "TLS certificate file (enables RTMPS)")
	keyFile := flag.String("k", os.Getenv("SSL_KEY"), "TLS key file (enables RTMPS)")
	tlsPort := flag.Int("tls-port", envInt("SSL_PORT", 443), "TCP port for RTMPS")
	flag.Parse()

	if *verbose {
		os.Setenv("LOG_DEBUG", "YES")
	}

	rtmpcore.LogInfo("RTMP Intercepting Proxy")

	cfg := rtmpcore.ServerConfig{
		Mode:        rtmpcore.ModeProxy,
		BindAddress: "0.0.0.0",
		Port:        *port,
		WorkDir:     *workDir,
		IPLimit:     rtmpcore.CustomIPLimit(),
	}

	if *certFile != "" && *keyFile != "" {
		loader, err := rtmpcore.NewTLSLoader(*certFile, *keyFile, 30)
		if err != nil {
			rtmpcore.LogError(err)
			os.Exit(1)
		}
		cfg.TLSLoader = loader
		cfg.TLSPort = *tlsPort
	}

	server, err := rtmpcore.NewServer(cfg)
	if err != nil {
		rtmpcore.LogError(err)
		os.Exit(1)
	}

	ops := rtmpcore.NewOpsController(server)
	ops.Initialize()

	go rtmpcore.SetupRedisCommandReceiver(server)

	go server.Start()

	waitForQuit(server)
}

func waitForQuit(server *rtmpcore.Server) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	quit := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if scanner.Text() == "q" {
				close(quit)
				return
			}
			fmt.Println("Unrecognized command (q quits)")
		}
	}()

	select {
	case <-sig:
	case <-quit:
	}

	fmt.Println("Shutting down...")
	server.Stop()
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}
