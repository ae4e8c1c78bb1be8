package impl

import (
	"crypto/md5"
	"encoding/hex"
	"reflect"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

func Get[T state.Module](s *state.State) T {
	t := reflect.TypeFor[T]()
	return s.Modules[t.String()].(T)
}

// Fingerprint keys the dedup windows: source plus the md5 of the exact data
// bytes, so a re-digipeated copy with a rewritten path still collides.
func Fingerprint(p *aprs.Packet) string {
	sum := md5.Sum(p.Data)
	return p.Source + "|" + hex.EncodeToString(sum[:])
}

// Reason names a policy rejection. These are outcomes, not errors; they are
// counted and logged at debug, never surfaced to clients.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonDisabled   Reason = "disabled"
	ReasonDuplicate  Reason = "duplicate"
	ReasonFlooding   Reason = "flooding"
	ReasonACL        Reason = "acl"
	ReasonFiltered   Reason = "filtered_type"
	ReasonNoMatch    Reason = "no_match"
	ReasonMaxHops    Reason = "max_hops_exceeded"
	ReasonViscous    Reason = "viscous_cancelled"
	ReasonPath       Reason = "invalid_path"
	ReasonThirdParty Reason = "third_party"
	ReasonOutOfRange Reason = "out_of_range"
	ReasonNotHeard   Reason = "not_heard"
	ReasonRate       Reason = "rate_limited"
	ReasonHopBudget  Reason = "hop_budget"
)
