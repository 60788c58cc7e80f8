package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikmy/remindbot/pkg/errors"
)

func TestParseRule(t *testing.T) {
	type testcase struct {
		name  string
		token string

		want    Rule
		wantErr bool
	}

	tests := [...]testcase{
		{
			name:  "plain",
			token: "monthly_15_10:00",
			want:  Rule{Kind: KindMonthly, DayOfMonth: 15, Hour: 10, Minute: 0},
		},
		{
			name:  "padded",
			token: "monthly_05_09:30",
			want:  Rule{Kind: KindMonthly, DayOfMonth: 5, Hour: 9, Minute: 30},
		},
		{
			name:  "unpadded legacy day and hour",
			token: "monthly_5_9:30",
			want:  Rule{Kind: KindMonthly, DayOfMonth: 5, Hour: 9, Minute: 30},
		},
		{
			name:  "last allowed day",
			token: "monthly_31_23:59",
			want:  Rule{Kind: KindMonthly, DayOfMonth: 31, Hour: 23, Minute: 59},
		},
		{
			name:    "unknown kind",
			token:   "weekly_15_10:00",
			wantErr: true,
		},
		{
			name:    "missing segment",
			token:   "monthly_15",
			wantErr: true,
		},
		{
			name:    "day zero",
			token:   "monthly_0_10:00",
			wantErr: true,
		},
		{
			name:    "day out of range",
			token:   "monthly_32_10:00",
			wantErr: true,
		},
		{
			name:    "day not a number",
			token:   "monthly_abc_10:00",
			wantErr: true,
		},
		{
			name:    "hour out of range",
			token:   "monthly_15_24:00",
			wantErr: true,
		},
		{
			name:    "minute out of range",
			token:   "monthly_15_10:60",
			wantErr: true,
		},
		{
			name:    "time without colon",
			token:   "monthly_15_1000",
			wantErr: true,
		},
		{
			name:    "empty",
			token:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRule(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrMalformedRule))
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRule_Token_RoundTrip(t *testing.T) {
	type testcase struct {
		name string
		rule Rule
		want string
	}

	tests := [...]testcase{
		{
			name: "padded day",
			rule: Rule{Kind: KindMonthly, DayOfMonth: 5, Hour: 9, Minute: 5},
			want: "monthly_05_09:05",
		},
		{
			name: "wide fields",
			rule: Rule{Kind: KindMonthly, DayOfMonth: 31, Hour: 23, Minute: 59},
			want: "monthly_31_23:59",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.rule.Token()
			require.Equal(t, tt.want, token)

			back, err := ParseRule(token)
			require.NoError(t, err)
			require.Equal(t, tt.rule, back)
		})
	}
}
