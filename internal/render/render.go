// Package render prints session and dashboard data as plain tables or JSON
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
	"github.com/nkiryanov/clinicdesk/internal/models"
	"github.com/nkiryanov/clinicdesk/internal/service/dashboard"
	"github.com/nkiryanov/clinicdesk/internal/service/session"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ParseFormat checks output format name
func ParseFormat(s string) (string, error) {
	switch s {
	case FormatTable, FormatJSON:
		return s, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be table or json", s)
	}
}

type Printer struct {
	w      io.Writer
	format string
}

func NewPrinter(w io.Writer, format string) (*Printer, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return &Printer{w: w, format: format}, nil
}

type sessionView struct {
	Phase    string           `json:"phase"`
	Identity *models.Identity `json:"identity"`
	Error    string           `json:"error,omitempty"`
	Kind     string           `json:"error_kind,omitempty"`
}

// Session prints the session state
func (p *Printer) Session(st session.State) error {
	v := sessionView{
		Phase:    st.Phase.String(),
		Identity: st.Identity,
		Error:    st.Error,
		Kind:     apperrors.Kind(st.Err),
	}

	if p.format == FormatJSON {
		return p.json(v)
	}

	rows := [][]string{{"Phase", v.Phase}}
	if v.Identity != nil {
		rows = append(rows,
			[]string{"User", v.Identity.Username},
			[]string{"Name", v.Identity.FullName()},
			[]string{"Role", v.Identity.Role},
		)
		if v.Identity.ID != 0 {
			rows = append(rows, []string{"ID", strconv.FormatInt(v.Identity.ID, 10)})
		}
	}
	if v.Error != "" {
		rows = append(rows, []string{"Error", v.Error})
	}

	return p.table([]string{"Field", "Value"}, rows)
}

// Dashboard prints today's appointments and the weekly availability
func (p *Printer) Dashboard(d dashboard.Dashboard) error {
	if p.format == FormatJSON {
		return p.json(d)
	}

	if _, err := fmt.Fprintf(p.w, "Appointments (%d)\n", len(d.Appointments)); err != nil {
		return err
	}
	if len(d.Appointments) == 0 {
		if _, err := fmt.Fprintln(p.w, "No appointments scheduled"); err != nil {
			return err
		}
	} else {
		rows := make([][]string, 0, len(d.Appointments))
		for _, a := range d.Appointments {
			rows = append(rows, []string{
				a.Date,
				timeRange(a.StartTime, a.EndTime),
				a.PatientName,
				a.Reason,
				a.Status,
				models.StatusCategory(a.Status),
			})
		}
		if err := p.table([]string{"Date", "Time", "Patient", "Reason", "Status", "Category"}, rows); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(p.w, "\nAvailability (%d)\n", len(d.Availability)); err != nil {
		return err
	}
	if len(d.Availability) == 0 {
		_, err := fmt.Fprintln(p.w, "No availability set")
		return err
	}

	rows := make([][]string, 0, len(d.Availability))
	for _, s := range d.Availability {
		label, category := s.AvailabilityLabel()
		rows = append(rows, []string{s.Day, timeRange(s.StartTime, s.EndTime), label, category})
	}
	return p.table([]string{"Day", "Time", "Status", "Category"}, rows)
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) table(header []string, rows [][]string) error {
	table := tablewriter.NewTable(p.w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// Accepted time layouts of the clinic API
var timeLayouts = []string{"15:04:05", "15:04"}

// clock formats API time as "9:00 AM". Values in unknown format are kept as is
func clock(value string) string {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("3:04 PM")
		}
	}
	return value
}

func timeRange(start, end string) string {
	return clock(start) + " - " + clock(end)
}
