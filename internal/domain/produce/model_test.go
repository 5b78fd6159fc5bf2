package produce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeArticleCode(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "402", want: "00000402        "},
		{in: "  402  ", want: "00000402        "},
		{in: "00000402", want: "00000402        "},
		{in: "12345678", want: "12345678        "},
		{in: "00000402        ", want: "00000402        "}, // already CHAR(16)
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "40A", wantErr: true},
		{in: "123456789", wantErr: true},
		{in: "ABCDEFGH        ", wantErr: true},
	}

	for _, tc := range cases {
		got, err := NormalizeArticleCode(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		assert.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
		assert.Len(t, got, 16, "input %q", tc.in)
	}
}

func TestFormatArticleCode(t *testing.T) {
	assert.Equal(t, "00000001        ", FormatArticleCode(1))
	assert.Equal(t, "00012345        ", FormatArticleCode(12345))
	assert.Equal(t, "99999999        ", FormatArticleCode(99999999))
}

func TestTrimArticleCode(t *testing.T) {
	assert.Equal(t, "00000402", TrimArticleCode("00000402        "))
	assert.Equal(t, "00000402", TrimArticleCode("00000402"))
}

func TestPadArticleCode(t *testing.T) {
	assert.Equal(t, "00000007        ", PadArticleCode("7"))
	assert.Equal(t, "12345678        ", PadArticleCode("12345678"))
}

func TestOrderIsReversal(t *testing.T) {
	order := &Order{Quantity: dec("1.0")}
	assert.False(t, order.IsReversal())

	order.Quantity = dec("-0.5")
	assert.True(t, order.IsReversal())
}
