package fetch

import (
	"github.com/netforge/fetch/internal/dialer"
)

type Dialer = dialer.Dialer
type CoreDialer = dialer.CoreDialer
