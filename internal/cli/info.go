package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tessro/hollow/internal/audio"
	"github.com/tessro/hollow/internal/core"
	herrors "github.com/tessro/hollow/internal/errors"
)

var infoCmd = &cobra.Command{
	Use:   "info [source]",
	Short: "Show format and length of an audio source",
	Long: `Fetch and decode an audio source without playing it.

Defaults to the configured player.source.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	source := cfg.Player.Source
	if len(args) == 1 {
		source = args[0]
	}
	if source == "" {
		return herrors.WithSuggestion(herrors.ErrNoSource, "Pass a path or URL, or set player.source")
	}

	info, err := audio.Probe(cmd.Context(), audio.NewHTTPClient(cfg.Engine.Retries()), source, cfg.Engine.MaxSourceSize())
	if err != nil {
		return err
	}

	if JSONOutput() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	t := NewTable()
	t.Row("Source", info.URI)
	t.Row("Type", info.MIME)
	t.Row("Size", humanize.Bytes(uint64(info.Size)))
	t.Row("Format", fmt.Sprintf("%s Hz, %s", humanize.Comma(int64(info.SampleRate)), channelName(info.Channels)))
	t.Row("Length", core.FormatTime(info.Duration.Seconds()))
	t.Flush()
	return nil
}

func channelName(n int) string {
	switch n {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return strconv.Itoa(n) + " channels"
	}
}
