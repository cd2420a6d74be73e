package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

const subjectL3AssignmentFmt = "L3 lead assigned: %s (%s)"

var displayZone = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}()

type baseEmailData struct {
	Title   string
	Heading string
}

type l3AssignmentEmailData struct {
	baseEmailData
	L3Assignment
	AssignedAtFormatted string
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func l3AssignmentSubject(d L3Assignment) string {
	return fmt.Sprintf(subjectL3AssignmentFmt, orNA(d.StudentName), orNA(d.CollegeName))
}

func renderL3Assignment(d L3Assignment) (string, error) {
	d.CollegeName = orNA(d.CollegeName)
	d.CourseName = orNA(d.CourseName)
	return renderEmailTemplate("l3_assignment.html", l3AssignmentEmailData{
		baseEmailData: baseEmailData{
			Title:   "New L3 assignment",
			Heading: "A student has been assigned to L3",
		},
		L3Assignment:        d,
		AssignedAtFormatted: d.AssignedAt.In(displayZone).Format("02 Jan 2006, 03:04 PM"),
	})
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
