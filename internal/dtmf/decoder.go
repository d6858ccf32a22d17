package dtmf

// Decoder turns filter bank output into a digit.
type Decoder struct {
	Threshold  float64 // absolute magnitude both best tones must reach
	TwistLimit float64 // exclusive upper bound on the twist ratio
}

// Decode returns the digit for r, or None. A digit is produced only when the
// window is active, both best tones reach the threshold and the twist ratio
// stays under the limit. Most windows are silence, so None is the common case.
func (d Decoder) Decode(r BankResult, active bool) Digit {
	if !active {
		return None
	}
	if r.LowMagnitude() < d.Threshold || r.HighMagnitude() < d.Threshold {
		return None
	}
	if r.Twist() >= d.TwistLimit {
		return None
	}
	return r.Pair()
}
