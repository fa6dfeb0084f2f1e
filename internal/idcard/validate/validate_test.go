package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
)

func fullRecord() domain.ResultRecord {
	return domain.ResultRecord{
		FirstName:  "محمود",
		SecondName: "احمد عبدالله حسن",
		Address:    "ابوخليفه مركز القنطره غرب ك 14",
		ID:         "18507152103457",
		Birthdate:  "1985-07-15",
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ResultRecord)
		want   int
	}{
		{
			name:   "complete record passes",
			mutate: func(r *domain.ResultRecord) {},
			want:   domain.ErrNone,
		},
		{
			name:   "missing id",
			mutate: func(r *domain.ResultRecord) { r.ID, r.Birthdate = "", "" },
			want:   domain.ErrIDMissing,
		},
		{
			name:   "short id",
			mutate: func(r *domain.ResultRecord) { r.ID, r.Birthdate = "1850715210", "" },
			want:   domain.ErrIDFormat,
		},
		{
			name:   "non-numeric id",
			mutate: func(r *domain.ResultRecord) { r.ID = "18507I52103457" },
			want:   domain.ErrIDFormat,
		},
		{
			name:   "readable id with no derived birthdate",
			mutate: func(r *domain.ResultRecord) { r.ID, r.Birthdate = "18513152103457", "" },
			want:   domain.ErrBirthdateInvalid,
		},
		{
			name:   "malformed birthdate",
			mutate: func(r *domain.ResultRecord) { r.Birthdate = "15/07/1985" },
			want:   domain.ErrBirthdateInvalid,
		},
		{
			name:   "birthdate contradicts id digits",
			mutate: func(r *domain.ResultRecord) { r.Birthdate = "1990-01-01" },
			want:   domain.ErrBirthdateInvalid,
		},
		{
			name:   "both names missing",
			mutate: func(r *domain.ResultRecord) { r.FirstName, r.SecondName = "", "" },
			want:   domain.ErrNamesMissing,
		},
		{
			name:   "missing second name",
			mutate: func(r *domain.ResultRecord) { r.SecondName = "" },
			want:   domain.ErrNamesMissing,
		},
		{
			name:   "missing first name",
			mutate: func(r *domain.ResultRecord) { r.FirstName = "" },
			want:   domain.ErrNamesMissing,
		},
		{
			name:   "first name spilling past three words",
			mutate: func(r *domain.ResultRecord) { r.FirstName = "محمود احمد عبدالله حسن" },
			want:   domain.ErrNamesMissing,
		},
		{
			name:   "single-word second name",
			mutate: func(r *domain.ResultRecord) { r.SecondName = "احمد" },
			want:   domain.ErrNamesMissing,
		},
		{
			name:   "two-word second name passes",
			mutate: func(r *domain.ResultRecord) { r.SecondName = "احمد عبدالله" },
			want:   domain.ErrNone,
		},
		{
			name:   "missing address",
			mutate: func(r *domain.ResultRecord) { r.Address = "" },
			want:   domain.ErrAddressMissing,
		},
		{
			name: "causes accumulate",
			mutate: func(r *domain.ResultRecord) {
				r.ID, r.Birthdate = "", ""
				r.FirstName, r.SecondName = "", ""
				r.Address = ""
			},
			want: domain.ErrIDMissing | domain.ErrNamesMissing | domain.ErrAddressMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fullRecord()
			tt.mutate(&rec)
			assert.Equal(t, tt.want, Code(rec))
		})
	}
}
