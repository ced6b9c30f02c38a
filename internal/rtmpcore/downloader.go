// Downloader command-line construction: builds the rtmpdump argv (and
// Command.txt line) that would reproduce a captured session. The proxy
// and stub emit the same flags, each optional one only when its captured
// value is non-empty; they differ only in the usher-token flag: the proxy
// writes `--jtv`, the stub writes `-j`.

package rtmpcore

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// BuildDownloaderArgs renders the argv for rtmpdump given a link's
// captured connection parameters and the selected output file name.
// usherFlag is "--jtv" for the proxy variant and "-j" for the stub.
func BuildDownloaderArgs(link *LinkState, outputFile string, usherFlag string) []string {
	args := []string{
		"-r", link.TcUrl,
	}
	if link.App != "" {
		args = append(args, "-a", link.App)
	}
	if link.FlashVer != "" {
		args = append(args, "-f", link.FlashVer)
	}
	if link.SwfUrl != "" {
		args = append(args, "-W", link.SwfUrl)
	}
	if link.PageUrl != "" {
		args = append(args, "-p", link.PageUrl)
	}
	if link.UsherToken != "" {
		args = append(args, usherFlag, link.UsherToken)
	}
	args = append(args, RenderExtrasArgs(link.Extras)...)
	if link.Live {
		args = append(args, "--live")
	}
	args = append(args, "-y", link.Playpath)
	args = append(args, "-o", outputFile)
	return args
}

// RenderCommandLine joins a downloader argv into one shell-quoted line
// suitable for appending to Command.txt: flags stay bare, every value is
// double-quoted, one reproducible command per play.
func RenderCommandLine(bin string, args []string) string {
	var b strings.Builder
	b.WriteString(bin)
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			b.WriteString(" " + a)
		} else {
			b.WriteString(fmt.Sprintf(` "%s"`, strings.ReplaceAll(a, `"`, `\"`)))
		}
	}
	return b.String()
}

// AppendCommandLog appends one reproducible command line to Command.txt
// in dir, creating the file if necessary.
func AppendCommandLog(dir, line string) error {
	path := "Command.txt"
	if dir != "" {
		path = dir + string(os.PathSeparator) + path
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

// SpawnDownloader launches the downloader binary fire-and-forget; the
// child is reaped in the background and never otherwise waited on.
func SpawnDownloader(bin string, args []string) (*os.Process, error) {
	cmd := exec.Command(bin, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	go func() { _ = cmd.Wait() }()
	return cmd.Process, nil
}

// WriteVLCBatch writes the stub's VLC.bat companion file when the
// "-vlc-bat" flag is set.
func WriteVLCBatch(dir, tcUrl, playpath string) error {
	path := "VLC.bat"
	if dir != "" {
		path = dir + string(os.PathSeparator) + path
	}
	content := "vlc " + strconv.Quote(tcUrl+"/"+playpath) + "\n"
	return os.WriteFile(path, []byte(content), 0644)
}
