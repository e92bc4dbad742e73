/*
Copyright 2026 The Jishu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gravitational/trace"
	"github.com/olekukonko/tablewriter"

	"github.com/jishu-edu/jishu-client/api"
	"github.com/jishu-edu/jishu-client/common/auth/state"
)

// CoursesCmd lists courses
type CoursesCmd struct {
	// ID shows a single course with its subjects
	ID int64 `arg:"true" optional:"true" help:"Show a single course with its subjects"`
}

func (c *CoursesCmd) Run(app *App) error {
	client, err := app.Client()
	if err != nil {
		return trace.Wrap(err)
	}
	ctx := app.Context()

	if c.ID != 0 {
		course, err := client.GetCourse(ctx, c.ID, true)
		if err != nil {
			return trace.Wrap(err)
		}
		fmt.Fprintf(app.out, "%s\n%s\n\n", course.Name, course.Description)
		printSubjects(app.out, course.Subjects)
		return nil
	}

	courses, err := client.ListCourses(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	printCourses(app.out, courses)
	return nil
}

// SubjectsCmd lists the subjects of a course
type SubjectsCmd struct {
	CourseID int64 `arg:"true" help:"Course id"`
}

func (c *SubjectsCmd) Run(app *App) error {
	client, err := app.Client()
	if err != nil {
		return trace.Wrap(err)
	}
	subjects, err := client.ListSubjects(app.Context(), c.CourseID)
	if err != nil {
		return trace.Wrap(err)
	}
	printSubjects(app.out, subjects)
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	return table
}

func printCourses(w io.Writer, courses []api.Course) {
	table := newTable(w, "ID", "Course", "Price", "Offer")
	for _, course := range courses {
		table.Append([]string{
			strconv.FormatInt(course.ID, 10),
			course.Name,
			formatAmount(course.Amount),
			formatAmount(course.OfferAmount),
		})
	}
	table.Render()
}

func printSubjects(w io.Writer, subjects []api.Subject) {
	table := newTable(w, "ID", "Subject", "Mock tests", "Price", "Offer")
	for _, subject := range subjects {
		if subject.IsDeleted {
			continue
		}
		name := subject.Name
		if subject.IsBundle {
			name += " (bundle)"
		}
		table.Append([]string{
			strconv.FormatInt(subject.ID, 10),
			name,
			strconv.Itoa(subject.TotalMock),
			formatAmount(subject.Amount),
			formatAmount(subject.OfferAmount),
		})
	}
	table.Render()
}

func printProfile(w io.Writer, user *state.UserProfile) {
	table := newTable(w, "Field", "Value")
	for _, row := range [][]string{
		{"ID", strconv.FormatInt(user.ID, 10)},
		{"Name", user.Name},
		{"Email", user.Email},
		{"Mobile", user.MobileNo},
		{"Status", user.Status},
		{"City", user.City},
		{"State", user.State},
	} {
		if row[1] != "" {
			table.Append(row)
		}
	}
	table.Render()
}

func formatAmount(amount float64) string {
	if amount == 0 {
		return "-"
	}
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
