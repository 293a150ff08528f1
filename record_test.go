package epicycle

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestRecordSize(t *testing.T) {
	if RecordSize != 24 {
		t.Fatalf("RecordSize = %d, want 24 (3×f32 position + 3×f32 color)", RecordSize)
	}
}

func TestRecordEncodeLayout(t *testing.T) {
	r := Record{
		Position: [3]float32{1.5, -2.25, 0},
		Color:    [3]float32{0.25, 0.5, 1},
	}
	buf := make([]byte, RecordSize)
	r.Encode(buf)

	want := []float32{1.5, -2.25, 0, 0.25, 0.5, 1}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != w {
			t.Errorf("float %d at offset %d = %v, want %v", i, i*4, got, w)
		}
	}

	if back := DecodeRecord(buf); back != r {
		t.Errorf("DecodeRecord() = %+v, want %+v", back, r)
	}
}

func TestRecordEncodeTouchesOnlyItsBytes(t *testing.T) {
	buf := bytes.Repeat([]byte{0xEE}, 3*RecordSize)
	NewRecord(V3(3, 4, 0), RGB(1, 0, 0)).Encode(buf[RecordSize:])

	if !bytes.Equal(buf[:RecordSize], bytes.Repeat([]byte{0xEE}, RecordSize)) {
		t.Error("Encode() wrote before its slot")
	}
	if !bytes.Equal(buf[2*RecordSize:], bytes.Repeat([]byte{0xEE}, RecordSize)) {
		t.Error("Encode() wrote after its slot")
	}
}

func TestNewRecordDropsAlpha(t *testing.T) {
	r := NewRecord(V3(1, 2, 3), RGBA{R: 0.5, G: 0.25, B: 0.125, A: 0})
	if r.Position != [3]float32{1, 2, 3} {
		t.Errorf("Position = %v", r.Position)
	}
	if r.Color != [3]float32{0.5, 0.25, 0.125} {
		t.Errorf("Color = %v", r.Color)
	}
}

func TestRecordEncodeShortBufferPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Encode() into a short buffer should panic")
		}
	}()
	Record{}.Encode(make([]byte, RecordSize-1))
}
