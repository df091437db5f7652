// Package replay drives a session from a scripted list of pointer and
// viewport gestures, with a clock the script controls.
package replay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/msalah0e/depviz/internal/session"
)

// FrameInterval is the simulated time between animation frames during a wait.
const FrameInterval = 16 * time.Millisecond

var ErrInvalidScript = errors.New("invalid replay script")

var validate = validator.New()

// Step is one scripted action.
//
// Pointer actions (down, move, hover, up) resolve their screen position from
// Node when set, else from X and Y, else relative to the previous pointer
// position; DX and DY are added in every case. Pan uses DX and DY as the
// screen offset. Wait advances the clock by MS and runs one frame per
// FrameInterval. Settle runs up to Frames frames (0 until the loop idles).
type Step struct {
	Action string   `toml:"action" validate:"required,oneof=down move hover up leave zoom_in zoom_out reset pan wait select deselect settle fit"`
	X      *float64 `toml:"x"`
	Y      *float64 `toml:"y"`
	DX     float64  `toml:"dx"`
	DY     float64  `toml:"dy"`
	Node   string   `toml:"node"`
	MS     int      `toml:"ms" validate:"gte=0"`
	Frames int      `toml:"frames" validate:"gte=0"`
	Margin float64  `toml:"margin" validate:"gte=0"`
}

// Script is a replay file.
type Script struct {
	// Model and Layout are defaults the CLI may apply before playing.
	Model  string `toml:"model"`
	Layout string `toml:"layout" validate:"omitempty,oneof=force hierarchical tree"`
	Steps  []Step `toml:"step" validate:"dive"`
}

// Parse decodes and validates a TOML script.
func Parse(data []byte) (*Script, error) {
	var s Script
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, fmt.Errorf("parse replay script: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidScript, strings.Join(keys, ", "))
	}
	if err := validate.Struct(&s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("%w: %s: %q fails %s", ErrInvalidScript, fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return &s, nil
}

// Load reads a script from disk.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Clock is a manually advanced time source.
type Clock struct {
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time { return c.now }

func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// Player applies steps to a session. The session must have been created
// with the player's clock as its interaction clock.
type Player struct {
	s     *session.Session
	clock *Clock
	log   *zap.Logger

	x, y float64
}

func NewPlayer(s *session.Session, clock *Clock, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{s: s, clock: clock, log: logger}
}

// Pointer returns the last pointer position in screen space.
func (p *Player) Pointer() (float64, float64) { return p.x, p.y }

// Play runs every step in order, pumping one frame after each so the
// session reacts as it would between browser events.
func (p *Player) Play(ctx context.Context, script *Script) error {
	for i, st := range script.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.Apply(ctx, st); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
		}
		p.log.Debug("replay step",
			zap.Int("step", i+1),
			zap.String("action", st.Action),
			zap.String("gesture", p.s.Gesture().String()),
			zap.String("selected", p.s.Selection().SelectedNodeID),
		)
	}
	return nil
}

// Apply runs a single step.
func (p *Player) Apply(ctx context.Context, st Step) error {
	switch st.Action {
	case "down", "move", "hover", "up":
		x, y, err := p.point(st)
		if err != nil {
			return err
		}
		p.x, p.y = x, y
		switch st.Action {
		case "down":
			p.s.PointerDown(x, y)
		case "up":
			p.s.PointerUp(x, y)
		default:
			p.s.PointerMove(x, y)
		}
	case "leave":
		p.s.PointerLeave()
	case "zoom_in":
		p.s.ZoomIn()
	case "zoom_out":
		p.s.ZoomOut()
	case "reset":
		p.s.ResetView()
	case "pan":
		p.s.Pan(st.DX, st.DY)
	case "fit":
		p.s.Fit(st.Margin)
	case "select":
		if err := p.s.Select(st.Node); err != nil {
			return err
		}
	case "deselect":
		p.s.ResetSelection()
	case "wait":
		d := time.Duration(st.MS) * time.Millisecond
		frames := int(d / FrameInterval)
		if frames < 1 {
			frames = 1
		}
		var elapsed time.Duration
		for i := 1; i <= frames; i++ {
			next := d * time.Duration(i) / time.Duration(frames)
			p.clock.Advance(next - elapsed)
			elapsed = next
			if _, err := p.s.Settle(ctx, 1); err != nil {
				return err
			}
		}
		return nil
	case "settle":
		_, err := p.s.Settle(ctx, st.Frames)
		return err
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	_, err := p.s.Settle(ctx, 1)
	return err
}

func (p *Player) point(st Step) (float64, float64, error) {
	switch {
	case st.Node != "":
		pos, ok := p.s.Positions().Get(st.Node)
		if !ok {
			return 0, 0, fmt.Errorf("node %q has no position", st.Node)
		}
		sx, sy := p.s.Viewport().WorldToScreen(pos.X, pos.Y)
		return sx + st.DX, sy + st.DY, nil
	case st.X != nil && st.Y != nil:
		return *st.X + st.DX, *st.Y + st.DY, nil
	case st.X != nil || st.Y != nil:
		return 0, 0, errors.New("x and y must be given together")
	}
	return p.x + st.DX, p.y + st.DY, nil
}
