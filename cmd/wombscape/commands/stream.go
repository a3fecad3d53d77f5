package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haivivi/wombscape/pkg/audio/pcm"
	"github.com/haivivi/wombscape/pkg/presets"
	"github.com/haivivi/wombscape/pkg/stream"
)

var streamFlags struct {
	addr        string
	preset      string
	presetsFile string
	sampleRate  int
	outRate     int
	frame       time.Duration
	rtp         string
	seed        uint64
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Serve live beds over websocket",
	Long: `Serve live beds over websocket, and optionally push one over RTP.

Each websocket client on GET /bed gets its own bed. Query parameters:
  seed, rate, channels, encoding (l16|f32), preset, bpm

Clients change the heart rate with a text frame such as
  {"type":"set_heart_rate","bpm":72}
and ask for counters with {"type":"stats"}.

With --rtp, one extra bed is sent as 16-bit big-endian L16 over RTP
(payload type 96) to the given host:port.

Examples:
  wombscape stream --addr :8790
  wombscape stream --preset soft --rtp 239.0.0.1:5004`,
	Args: cobra.NoArgs,
	RunE: runStream,
}

func init() {
	f := streamCmd.Flags()
	f.StringVar(&streamFlags.addr, "addr", "", "listen address (default: context stream_addr or "+stream.DefaultAddr+")")
	f.StringVar(&streamFlags.preset, "preset", "", "default preset id")
	f.StringVar(&streamFlags.presetsFile, "presets-file", "", "YAML or JSON file of extra presets")
	f.IntVar(&streamFlags.sampleRate, "sr", 0, "synthesis sample rate in Hz (default 48000)")
	f.IntVar(&streamFlags.outRate, "out-rate", stream.DefaultOutputRate, "default output sample rate in Hz")
	f.DurationVar(&streamFlags.frame, "frame", stream.DefaultFrameDuration, "frame duration")
	f.StringVar(&streamFlags.rtp, "rtp", "", "also send an L16 RTP stream to host:port")
	f.Uint64Var(&streamFlags.seed, "rtp-seed", 0, "seed of the RTP bed (default random)")
}

func runStream(cmd *cobra.Command, args []string) error {
	cliCtx, err := getContext()
	if err != nil {
		return err
	}
	extra, err := loadPresets(cliCtx, streamFlags.presetsFile)
	if err != nil {
		return err
	}
	presetID := streamFlags.preset
	if presetID == "" {
		presetID = cliCtx.Preset
	}
	addr := streamFlags.addr
	if addr == "" {
		addr = cliCtx.StreamAddr
	}
	rate := streamFlags.sampleRate
	if rate == 0 {
		rate = cliCtx.SampleRate
	}

	srv, err := stream.NewServer(stream.Config{
		Addr:          addr,
		Preset:        presetID,
		Presets:       extra,
		SynthRate:     rate,
		OutputRate:    streamFlags.outRate,
		FrameDuration: streamFlags.frame,
		Logger:        slog.Default(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if streamFlags.rtp != "" {
		sender, err := newRTPSender(cmd, cliCtx.SampleRate, presetID, extra)
		if err != nil {
			stop()
			g.Wait()
			return err
		}
		defer sender.Close()
		g.Go(func() error {
			if err := sender.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func newRTPSender(cmd *cobra.Command, ctxRate int, presetID string, extra []presets.Preset) (*stream.RTPSender, error) {
	preset, err := presets.Resolve(presetID, extra)
	if err != nil {
		return nil, err
	}
	rate := streamFlags.sampleRate
	if rate == 0 {
		rate = ctxRate
	}
	if rate == 0 {
		rate = stream.DefaultSynthRate
	}
	seed := streamFlags.seed
	if !cmd.Flags().Changed("rtp-seed") {
		seed = rand.Uint64()
	}
	bed := preset.Bed(rate, seed)
	bed.Logger = slog.Default()
	format := pcm.Format{SampleRate: streamFlags.outRate, Channels: 1, Encoding: pcm.L16}
	source, err := stream.NewSource(bed, format, streamFlags.frame)
	if err != nil {
		return nil, fmt.Errorf("rtp source: %w", err)
	}
	printVerbose("rtp bed: preset %s, seed %d, %v", preset.ID, seed, format)
	return stream.NewRTPSender(streamFlags.rtp, source, streamFlags.frame, slog.Default())
}
