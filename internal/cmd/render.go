package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gemora/internal/portal"
	"github.com/felixgeelhaar/gemora/internal/ux"
)

// emit writes v in format. Text output prefers table when one is given.
func emit(cmd *cobra.Command, format string, noColor bool, v any, table ux.Tabular) error {
	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{
		Writer:  cmd.OutOrStdout(),
		NoColor: noColor,
	})
	if err != nil {
		return err
	}
	if _, isText := formatter.(*ux.TextFormatter); isText && table != nil {
		v = table
	}
	return formatter.Format(v)
}

func userTable(users []portal.User) ux.Table {
	t := ux.Table{
		Columns: []string{"ID", "NAME", "EMAIL", "CONTACT", "ROLE"},
		Empty:   "No users found.",
	}
	for _, u := range users {
		t.Data = append(t.Data, []string{
			strconv.FormatInt(u.ID, 10), u.Name, u.Email, dash(u.ContactNumber), u.Role,
		})
	}
	return t
}

func userDetail(u *portal.User) ux.Table {
	t := ux.Table{Columns: []string{"FIELD", "VALUE"}}
	t.Data = [][]string{
		{"ID", strconv.FormatInt(u.ID, 10)},
		{"Name", u.Name},
		{"Email", u.Email},
		{"Contact", dash(u.ContactNumber)},
		{"Role", u.Role},
		{"Avatar", dash(u.AvatarURL)},
		{"ID (front)", dash(u.IDFrontImageURL)},
		{"ID (back)", dash(u.IDBackImageURL)},
		{"Selfie", dash(u.SelfieImageURL)},
	}
	return t
}

func gemTable(gems []portal.Gem, empty string) ux.Table {
	t := ux.Table{
		Columns: []string{"ID", "NAME", "CATEGORY", "CARAT", "PRICE", "TYPE", "STATUS", "CERTIFIED"},
		Empty:   empty,
	}
	for i := range gems {
		g := &gems[i]
		certified := "no"
		if g.Verified() {
			certified = "verified"
		} else if len(g.Certificates) > 0 || g.CertificationNumber != "" {
			certified = "unverified"
		}
		t.Data = append(t.Data, []string{
			strconv.FormatInt(g.ID, 10),
			g.Name,
			dash(g.Category),
			strconv.FormatFloat(g.Carat, 'f', 2, 64),
			strconv.FormatFloat(g.Price, 'f', 2, 64),
			dash(g.ListingType),
			g.Status,
			certified,
		})
	}
	return t
}

func ticketTable(tickets []portal.Ticket) ux.Table {
	t := ux.Table{
		Columns: []string{"ID", "TITLE", "PRIORITY", "STATUS", "REPLY"},
		Empty:   "No tickets found.",
	}
	for _, tk := range tickets {
		t.Data = append(t.Data, []string{
			strconv.FormatInt(tk.ID, 10), tk.Title, dash(tk.Priority), tk.Status, dash(truncate(tk.AdminReply, 40)),
		})
	}
	return t
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
