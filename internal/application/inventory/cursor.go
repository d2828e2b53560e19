package inventory

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// encodeCursor serializa la posición (OccurredAt, Seq) de forma opaca para el cliente.
func encodeCursor(c repository.MovementCursor) string {
	raw := strconv.FormatInt(c.OccurredAt.UnixMicro(), 10) + ":" + strconv.FormatInt(c.Seq, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (*repository.MovementCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	ts, seq, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, domain.ErrInvalidInput
	}
	micros, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	n, err := strconv.ParseInt(seq, 10, 64)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	return &repository.MovementCursor{OccurredAt: time.UnixMicro(micros).UTC(), Seq: n}, nil
}
