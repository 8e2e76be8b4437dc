package ownership

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/alphabill-org/starregistry/crypto"
	"github.com/alphabill-org/starregistry/ledger"
	"github.com/alphabill-org/starregistry/logger"
	"github.com/alphabill-org/starregistry/observability"
	"github.com/alphabill-org/starregistry/types"
)

const (
	DefaultValidationWindow = 300 * time.Second

	messageTag = "starRegistry"
)

var (
	ErrTimeout          = errors.New("ownership verification message has expired")
	ErrSignature        = errors.New("signature verification failed")
	ErrMalformedMessage = errors.New("malformed ownership verification message")
)

// submission outcomes for the metric
const (
	statusOK        = "ok"
	statusTimeout   = "timeout"
	statusSignature = "signature"
	statusMalformed = "malformed"
	statusInvalid   = "invalid"
	statusIntegrity = "integrity"
)

// BlockAppender is the ledger the registered stars are appended to.
type BlockAppender interface {
	AddBlock(payload any) (*types.Block, error)
}

/*
Verifier registers stars after the submitter has proven the ownership of the
wallet address by signing the verification message issued by the Verifier.

The Verifier doesn't keep any state between the calls, the verification
message carries the address and the time it was issued at.
*/
type Verifier struct {
	ledger      BlockAppender
	sigVerifier crypto.MessageVerifier
	window      time.Duration
	clock       clock.Clock
	log         *slog.Logger

	submissions metric.Int64Counter
}

type Option func(*Verifier)

// WithValidationWindow sets how long the verification message is valid after it was issued.
func WithValidationWindow(d time.Duration) Option {
	return func(v *Verifier) {
		v.window = d
	}
}

func WithClock(c clock.Clock) Option {
	return func(v *Verifier) {
		v.clock = c
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(v *Verifier) {
		v.log = log
	}
}

func WithMeter(m metric.Meter) Option {
	return func(v *Verifier) {
		var err error
		if v.submissions, err = m.Int64Counter("star.submissions", metric.WithDescription("Number of star submissions by outcome")); err != nil {
			v.submissions = noop.Int64Counter{}
		}
	}
}

func NewVerifier(l BlockAppender, sv crypto.MessageVerifier, opts ...Option) (*Verifier, error) {
	if l == nil {
		return nil, errors.New("ledger is nil")
	}
	if sv == nil {
		return nil, errors.New("signature verifier is nil")
	}
	v := &Verifier{
		ledger:      l,
		sigVerifier: sv,
		window:      DefaultValidationWindow,
		clock:       clock.New(),
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		submissions: noop.Int64Counter{},
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.window < time.Second {
		return nil, fmt.Errorf("validation window must be at least one second, got %s", v.window)
	}
	return v, nil
}

// RequestVerificationMessage returns the message the owner of the address has to sign.
func (v *Verifier) RequestVerificationMessage(address string) string {
	msg := fmt.Sprintf("%s:%d:%s", address, v.clock.Now().Unix(), messageTag)
	v.log.Debug("verification message issued", logger.Address(address))
	return msg
}

/*
SubmitStar registers the star to the address when the message was issued no
more than validation window ago and the signature of the message verifies
against the address. No block is created when any of the checks fails.
*/
func (v *Verifier) SubmitStar(address, message, signature string, star json.RawMessage) (*types.Block, error) {
	b, err := v.submitStar(address, message, signature, star)
	v.submissions.Add(context.Background(), 1, metric.WithAttributes(observability.Status(submissionStatus(err))))
	if err != nil {
		v.log.Info("star submission rejected", logger.Address(address), logger.Error(err))
		return nil, err
	}
	v.log.Info("star registered", logger.Address(address), logger.Height(b.Height), logger.BlockHash(b.Hash))
	return b, nil
}

func (v *Verifier) submitStar(address, message, signature string, star json.RawMessage) (*types.Block, error) {
	issuedAt, err := ParseMessage(message)
	if err != nil {
		return nil, err
	}

	elapsed := v.clock.Now().Unix() - issuedAt
	if window := int64(v.window / time.Second); elapsed >= window {
		return nil, fmt.Errorf("%w: message was issued %d seconds ago, validity window is %d seconds", ErrTimeout, elapsed, window)
	}

	if err := v.sigVerifier.VerifyMessage(message, address, signature); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignature, err)
	}

	rec, err := types.NewStarRecord(address, star)
	if err != nil {
		return nil, err
	}
	return v.ledger.AddBlock(rec)
}

/*
ParseMessage returns the timestamp (seconds since epoch) embedded into the
verification message "<address>:<timestamp>:starRegistry".
*/
func ParseMessage(message string) (int64, error) {
	parts := strings.Split(message, ":")
	if len(parts) < 3 {
		return 0, fmt.Errorf("%w: expected <address>:<timestamp>:%s", ErrMalformedMessage, messageTag)
	}
	if tag := parts[len(parts)-1]; tag != messageTag {
		return 0, fmt.Errorf("%w: unexpected domain tag %q", ErrMalformedMessage, tag)
	}
	ts, err := strconv.ParseUint(parts[len(parts)-2], 10, 63)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid timestamp: %w", ErrMalformedMessage, err)
	}
	return int64(ts), nil
}

func submissionStatus(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, ErrTimeout):
		return statusTimeout
	case errors.Is(err, ErrSignature):
		return statusSignature
	case errors.Is(err, ErrMalformedMessage):
		return statusMalformed
	case errors.Is(err, types.ErrInvalidStar):
		return statusInvalid
	case errors.Is(err, ledger.ErrChainIntegrity):
		return statusIntegrity
	default:
		return "err"
	}
}
