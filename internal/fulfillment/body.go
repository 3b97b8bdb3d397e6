package fulfillment

import (
	"bytes"
	"html/template"
	"time"

	"github.com/iliyamo/cinema-screenings/internal/model"
)

var bodyTemplate = template.Must(template.New("confirmation").Funcs(template.FuncMap{
	"amount": FormatAmount,
	"date":   func(t time.Time) string { return t.Format(model.DateLayout) },
}).Parse(`<!DOCTYPE html>
<html>
<body>
<p>Dear {{.Client.Name}},</p>
<p>your reservation #{{.ReservationID}} for <strong>{{.Screening.MovieTitle}}</strong>
in {{.Screening.RoomName}} on {{date .Screening.Date}} is confirmed.</p>
<table>
<tr><th>Seat</th><th>Ticket</th></tr>
{{range .Seats}}<tr><td>{{.SeatNumber}}</td><td>{{.TypeOfSeat}}</td></tr>
{{end}}</table>
<p>Total: {{amount .Total .Currency}}. The invoice {{.Number}} is attached.</p>
</body>
</html>
`))

// RenderBody renders the HTML confirmation mail for inv.
func RenderBody(inv Invoice) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, inv); err != nil {
		return "", err
	}
	return buf.String(), nil
}
