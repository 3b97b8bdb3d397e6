package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestHandleMessageAppendsLine(t *testing.T) {
    dir := filepath.Join(t.TempDir(), "logs")
    ev := ReservationCreatedEvent{
        ReservationID: 4,
        ScreeningID:   2,
        MovieID:       1,
        RoomID:        3,
        SeatNumbers:   []int{5, 6},
        InvoiceNumber: "AB12CD34-4",
        Total:         5000,
        Currency:      "PLN",
        CreatedAt:     time.Date(2024, 10, 12, 9, 30, 0, 0, time.UTC),
    }
    body, err := json.Marshal(ev)
    require.NoError(t, err)

    require.NoError(t, handleMessage(dir, body))
    require.NoError(t, handleMessage(dir, body))

    data, err := os.ReadFile(filepath.Join(dir, "reservations.log"))
    require.NoError(t, err)
    want := "[2024-10-12T09:30:00Z] Reservation created | reservation_id=4 | screening_id=2 | movie_id=1 | room_id=3 | invoice=AB12CD34-4 | total=5000 PLN | seats=[5,6]\n"
    assert.Equal(t, want+want, string(data))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
    err := handleMessage(t.TempDir(), []byte("{not json"))
    assert.ErrorContains(t, err, "unmarshal")
}
