package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"streamer/internal/output"
	"streamer/internal/stream"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the streams a running streamer is serving",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("server", "http://localhost:8080", "streamer base URL")
	output.AddFormatFlag(statusCmd)

	viper.BindPFlag("status.server", statusCmd.Flags().Lookup("server"))
}

// statusResponse mirrors the /status document
type statusResponse struct {
	Service       string         `json:"service"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	AuthEnabled   bool           `json:"auth_enabled"`
	StreamCount   int            `json:"stream_count"`
	StreamsByKind map[string]int `json:"streams_by_kind"`
	Streams       []stream.Info  `json:"streams"`
	Microphone    *struct {
		Subscribers   int    `json:"subscribers"`
		Chunks        uint64 `json:"chunks"`
		DroppedChunks uint64 `json:"dropped_chunks"`
	} `json:"microphone,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.GetFormatFromCmd(cmd)
	if err != nil {
		return err
	}

	status, err := fetchStatus(viper.GetString("status.server"))
	if err != nil {
		return err
	}

	formatter := output.New(format)
	formatter.SetWriter(cmd.OutOrStdout())

	if formatter.IsJSON() {
		return formatter.JSON(status)
	}
	return printStatus(formatter, status)
}

func fetchStatus(baseURL string) (*statusResponse, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(strings.TrimSuffix(baseURL, "/") + "/status")
	if err != nil {
		return nil, fmt.Errorf("failed to reach streamer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status request failed: %s", resp.Status)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return &status, nil
}

func printStatus(f *output.Formatter, status *statusResponse) error {
	fields := [][2]string{
		{"Service", status.Service},
		{"Version", status.Version},
		{"Uptime", (time.Duration(status.UptimeSeconds) * time.Second).String()},
		{"Auth", strconv.FormatBool(status.AuthEnabled)},
		{"Streams", strconv.Itoa(status.StreamCount)},
	}
	if mic := status.Microphone; mic != nil {
		fields = append(fields, [2]string{"Audio subscribers", strconv.Itoa(mic.Subscribers)})
		fields = append(fields, [2]string{"Dropped chunks", strconv.FormatUint(mic.DroppedChunks, 10)})
	}
	if err := f.Fields(fields); err != nil {
		return err
	}

	if len(status.Streams) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(status.Streams))
	for _, s := range status.Streams {
		rows = append(rows, []string{
			s.ID,
			string(s.Kind),
			s.Transport,
			s.RemoteAddr,
			time.Since(s.StartedAt).Truncate(time.Second).String(),
			strconv.FormatUint(s.FramesWritten, 10),
			strconv.FormatUint(s.BytesWritten, 10),
		})
	}

	fmt.Fprintln(f.Writer())
	return f.Table([]string{"id", "kind", "transport", "remote", "age", "frames", "bytes"}, rows)
}
