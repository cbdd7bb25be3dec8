//ledshow drives a set of strips with a moving rainbow, either on the simulated peripheral or on the PWM of a Raspberry Pi.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/DerLukas15/clockless"
	"github.com/DerLukas15/clockless/rmtsim"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

var (
	strips     = 3
	pixels     = 60
	channels   = clockless.MaxChannels
	mode       = "streaming"
	backend    = "sim"
	pins       = []int{12}
	frames     = 100
	frameRate  = 30
	brightness = uint8(128)
	dither     = false
	verbose    = false
)

func init() {
	pflag.IntVar(&strips, "strips", strips, "number of strips on the simulated peripheral")
	pflag.IntVar(&pixels, "pixels", pixels, "LEDs per strip")
	pflag.IntVar(&channels, "channels", channels, "channels used for streaming")
	pflag.StringVar(&mode, "mode", mode, "streaming or precompute")
	pflag.StringVar(&backend, "backend", backend, "sim or pwm. pwm needs precompute mode and a Raspberry Pi")
	pflag.IntSliceVar(&pins, "pins", pins, "GPIO pins for the pwm backend")
	pflag.IntVar(&frames, "frames", frames, "frames to show, 0 runs until interrupted")
	pflag.IntVar(&frameRate, "fps", frameRate, "frames per second")
	pflag.Uint8Var(&brightness, "brightness", brightness, "global brightness")
	pflag.BoolVar(&dither, "dither", dither, "enable temporal dithering")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)
	clockless.SetLogger(logger)
	clockless.Debug = verbose

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		log.Fatal(err)
	}
}

type output struct {
	strip  *clockless.Strip
	leds   *clockless.LEDStrip
	source *clockless.LEDsSource
}

func run(ctx context.Context, logger *slog.Logger) error {
	var m clockless.Mode
	switch mode {
	case "streaming":
		m = clockless.ModeStreaming
	case "precompute":
		m = clockless.ModePrecompute
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	driver, err := clockless.New(m)
	if err != nil {
		return err
	}

	var sim *rmtsim.Peripheral
	outPins := make([]uint32, 0, strips)
	switch backend {
	case "sim":
		sim = rmtsim.New()
		err = driver.SetPeripheral(sim)
		if err == nil {
			err = driver.SetTransmitter(sim)
		}
		for i := 0; i < strips; i++ {
			outPins = append(outPins, uint32(i))
		}
	case "pwm":
		if m != clockless.ModePrecompute {
			return fmt.Errorf("backend pwm needs mode precompute")
		}
		err = driver.SetTransmitter(clockless.NewPWMTransmitter())
		for _, pin := range pins {
			outPins = append(outPins, uint32(pin))
		}
	default:
		return fmt.Errorf("unknown backend %q", backend)
	}
	if err != nil {
		return err
	}
	if err := driver.SetMaxChannels(channels); err != nil {
		return err
	}
	if err := driver.SetMaxStrips(max(len(outPins), 1)); err != nil {
		return err
	}

	outputs := make([]output, 0, len(outPins))
	for _, pin := range outPins {
		s, err := driver.AddStrip(pin, clockless.WS2812Timing)
		if err != nil {
			return fmt.Errorf("failed to add strip on pin %d: %w", pin, err)
		}
		leds := clockless.NewLEDStrip(pixels)
		source, err := clockless.NewLEDsSource(leds, clockless.WS2812Strip)
		if err != nil {
			return err
		}
		source.SetBrightness(brightness)
		source.SetDither(dither)
		outputs = append(outputs, output{strip: s, leds: leds, source: source})
	}
	if err := driver.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize driver: %w", err)
	}
	defer func() {
		if err := driver.Stop(); err != nil {
			logger.Error("failed to stop driver", "err", err)
		}
	}()

	// The simulation keeps running until the last Show has returned.
	simCtx, stopSim := context.WithCancel(context.Background())
	defer stopSim()
	g, ctx := errgroup.WithContext(ctx)
	if sim != nil {
		g.Go(func() error {
			return sim.Run(simCtx)
		})
	}
	g.Go(func() error {
		defer stopSim()
		return render(ctx, logger, outputs)
	})
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if sim != nil {
		logger.Info("simulation done",
			"cycles", driver.Cycles(),
			"transmissions", len(sim.Transmissions()),
			"overwrites", sim.Overwrites())
	}
	return err
}

func render(ctx context.Context, logger *slog.Logger, outputs []output) error {
	ticker := time.NewTicker(time.Second / time.Duration(max(frameRate, 1)))
	defer ticker.Stop()

	for frame := 0; frames == 0 || frame < frames; frame++ {
		start := time.Now()
		for n, out := range outputs {
			for i := 0; i < out.leds.TotalCount(); i++ {
				out.leds.SetDirect(i, uint32(wheel(uint8(frame*4+i*256/max(pixels, 1)+n*40))))
			}
			out.source.Rewind()
			if err := out.strip.Show(out.source); err != nil {
				return fmt.Errorf("frame %d: %w", frame, err)
			}
		}
		logger.Debug("frame shown", "frame", frame, "took", time.Since(start))

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

//wheel maps pos to a color on a red, green, blue circle.
func wheel(pos uint8) clockless.SingleLED {
	switch {
	case pos < 85:
		return clockless.RGB(255-pos*3, pos*3, 0)
	case pos < 170:
		pos -= 85
		return clockless.RGB(0, 255-pos*3, pos*3)
	default:
		pos -= 170
		return clockless.RGB(pos*3, 0, 255-pos*3)
	}
}
