package errs_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netforge/fetch/internal/errs"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t,
		"fetch: receive: protocol error: bad status line",
		errs.New(errs.KindProtocol, errs.PhaseReceive, "bad status line").Error())

	assert.Equal(t,
		"fetch: send: body transfer error: unexpected EOF",
		errs.Wrap(errs.KindBodyTransfer, errs.PhaseSend, io.ErrUnexpectedEOF).Error())
}

func TestUnwrapChain(t *testing.T) {
	err := errs.Wrap(errs.KindTimeout, errs.PhaseReceive,
		errs.Wrap(errs.KindBodyTransfer, errs.PhaseReceive, io.ErrUnexpectedEOF))

	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, errs.Is(err, errs.KindTimeout))
	assert.True(t, errs.Is(err, errs.KindBodyTransfer))
	assert.False(t, errs.Is(err, errs.KindConnector))
}

func TestKindOfReturnsOutermost(t *testing.T) {
	inner := errs.New(errs.KindProtocol, errs.PhaseReceive, "x")
	outer := fmt.Errorf("attempt failed: %w", errs.Wrap(errs.KindTimeout, errs.PhaseSend, inner))

	assert.Equal(t, errs.KindTimeout, errs.KindOf(outer))
	assert.Equal(t, errs.Kind(0), errs.KindOf(errors.New("foreign")))
	assert.Equal(t, errs.Kind(0), errs.KindOf(nil))
}

func TestTimeout(t *testing.T) {
	assert.True(t, errs.New(errs.KindTimeout, errs.PhaseReceive, "").Timeout())
	assert.False(t, errs.New(errs.KindProtocol, errs.PhaseReceive, "").Timeout())

	// the shape net.Error-aware callers check for
	var te interface{ Timeout() bool }
	assert.True(t, errors.As(errs.New(errs.KindTimeout, errs.PhaseConnect, ""), &te))
}
