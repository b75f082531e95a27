package geom

import "testing"

func TestDist(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"same", Pt(1, 1), Pt(1, 1), 0},
		{"horizontal", Pt(0, 0), Pt(10, 0), 10},
		{"pythagorean", Pt(0, 0), Pt(3, 4), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Dist(tt.b); got != tt.want {
				t.Errorf("Dist = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLess(t *testing.T) {
	if !Pt(0, 5).Less(Pt(1, 0)) {
		t.Error("x should dominate ordering")
	}
	if !Pt(1, 0).Less(Pt(1, 2)) {
		t.Error("y should break ties")
	}
	if Pt(1, 1).Less(Pt(1, 1)) {
		t.Error("equal points are not less")
	}
}

func TestAddSubRoundTrip(t *testing.T) {
	p := Pt(12.5, -3.25)
	d := Pt(7.125, 9)
	if got := p.Add(d).Sub(d); got != p {
		t.Errorf("round trip = %v, want %v", got, p)
	}
}
