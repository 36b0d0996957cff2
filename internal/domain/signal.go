package domain

type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Side is the position side a signal of this direction points to.
func (d Direction) Side() Side {
	if d == Bullish {
		return SideLong
	}
	return SideShort
}

type Strength string

const (
	// Strong signals may close an opposing position and open a new one.
	Strong Strength = "strong"
	// Mild signals may only close an opposing position.
	Mild Strength = "mild"
)

type Signal struct {
	Direction Direction `json:"direction"`
	Strength  Strength  `json:"strength"`
}

func (s Signal) String() string {
	return string(s.Strength) + " " + string(s.Direction)
}
