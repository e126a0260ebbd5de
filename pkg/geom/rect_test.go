package geom

import "testing"

func TestUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"disjoint", XYWH(0, 0, 10, 10), XYWH(20, 20, 5, 5), Rect{0, 0, 25, 25}},
		{"nested", XYWH(0, 0, 10, 10), XYWH(2, 2, 2, 2), Rect{0, 0, 10, 10}},
		{"empty left", EmptyRect(), XYWH(1, 1, 1, 1), Rect{1, 1, 2, 2}},
		{"empty right", XYWH(1, 1, 1, 1), EmptyRect(), Rect{1, 1, 2, 2}},
		{"zero rect ignored", Rect{}, XYWH(5, 5, 1, 1), Rect{5, 5, 6, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Union(tt.b); got != tt.want {
				t.Errorf("Union() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntersect(t *testing.T) {
	got := XYWH(0, 0, 10, 10).Intersect(XYWH(5, 5, 10, 10))
	if got != (Rect{5, 5, 10, 10}) {
		t.Errorf("Intersect() = %v", got)
	}
	if !XYWH(0, 0, 1, 1).Intersect(XYWH(5, 5, 1, 1)).IsEmpty() {
		t.Error("disjoint Intersect() should be empty")
	}
}

func TestTranslateScale(t *testing.T) {
	r := XYWH(1, 2, 3, 4).Translate(10, 10).Scale(2)
	if r != (Rect{22, 24, 28, 32}) {
		t.Errorf("Translate().Scale() = %v", r)
	}
	if !EmptyRect().Translate(5, 5).IsEmpty() {
		t.Error("translated empty rect should stay empty")
	}
}

func TestWidthHeight(t *testing.T) {
	r := XYWH(0, 0, 3, 4)
	if r.Width() != 3 || r.Height() != 4 {
		t.Errorf("size = %vx%v, want 3x4", r.Width(), r.Height())
	}
	if EmptyRect().Width() != 0 {
		t.Error("empty Width() should be 0")
	}
	if EmptyRect().String() != "empty" {
		t.Errorf("String() = %q", EmptyRect().String())
	}
}
