// rtmpstub terminates RTMP sessions locally, answering every handshake
// and invocation itself, and spawns an external downloader for each play
// instead of relaying to a real origin.
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
	workDir := flag.String("dir", envOr("RTMP_STUB_WORKDIR", "."), "directory Command.txt (and VLC.bat) are written to")
	downloaderBin := flag.String("downloader", envOr("RTMPDUMP_BIN", "rtmpdump"), "downloader binary to spawn for each play")
	vlcBatch := flag.Bool("vlc-bat", false, "write VLC.bat alongside Command.txt instead of just logging the rtmpdump command")
	windowsEscaping := flag.Bool("windows-usher-escaping", false, "additionally escape ^ and | in the usher token for a Windows target shell")
	certFile := flag.String("c", os.Getenv("SSL_CERT"), "TLS certificate file (enables RTMPS)")
	keyFile := flag.String("k", os.Getenv("SSL_KEY"), "TLS key file (enables RTMPS)")
	tlsPort := flag.Int("tls-port", envInt("SSL_PORT", 443), "TCP port for RTMPS")
	flag.Parse()

	if *verbose {
		os.Setenv("LOG_DEBUG", "YES")
	}

	rtmpcore.LogInfo("RTMP Stub Invocation Server")

	cfg := rtmpcore.ServerConfig{
		Mode:        rtmpcore.ModeStub,
		BindAddress: "0.0.0.0",
		Port:        *port,
		WorkDir:     *workDir,
		IPLimit:     rtmpcore.CustomIPLimit(),
		StubConfig: rtmpcore.StubConfig{
			DownloaderBin:        *downloaderBin,
			VLCBatch:             *vlcBatch,
			WindowsUsherEscaping: *windowsEscaping,
		},
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
