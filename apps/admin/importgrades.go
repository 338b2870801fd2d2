package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/audit"
	"github.com/trezcool/alama/core/gradeimport"
	"github.com/trezcool/alama/core/progress"
	"github.com/trezcool/alama/core/user"
)

// importGrades previews a grade-sheet CSV against a class and prints the
// resulting change-set as a unified diff; with commit=true the changes are
// applied and audited.
func (cli *commandLine) importGrades(classID, path string, commit bool) error {
	ctx := context.Background()
	out := cli.output()

	cls, err := cli.classRepo.GetClassByID(ctx, classID)
	if err != nil {
		return err
	}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	sheet, err := gradeimport.ParseSheet(string(raw))
	if err != nil {
		return err
	}
	classification := gradeimport.Classify(sheet.Header, gradeimport.DefaultClassifierConfig())

	asgs, err := cli.assignmentRepo.QueryAssignmentsByClass(ctx, cls.ID)
	if err != nil {
		return err
	}
	targets := make([]gradeimport.Target, 0, len(asgs))
	asgNames := make(map[string]string, len(asgs))
	for _, asg := range asgs {
		targets = append(targets, gradeimport.Target{ID: asg.ID, Name: asg.Name})
		asgNames[asg.ID] = asg.Name
	}
	mappings := gradeimport.MatchColumns(classification.Candidates, targets, core.Conf.GradeImport.MatchThreshold)

	roster, usrNames, err := cli.roster(ctx, cls.ID)
	if err != nil {
		return err
	}

	recs, err := cli.progressRepo.QueryRecordsByClass(ctx, cls.ID)
	if err != nil {
		return err
	}
	stored := make(map[gradeimport.Cell]string, len(recs))
	for _, rec := range recs {
		stored[gradeimport.Cell{StudentID: rec.StudentID, AssignmentID: rec.AssignmentID}] = rec.Value
	}

	preview := gradeimport.BuildPreview(sheet, classification, mappings, roster, stored)

	for _, m := range mappings {
		status := "?"
		if m.Confident {
			status = "ok"
		}
		fmt.Fprintf(out, "column %-30q -> %-30q (score %d, %s)\n", m.Column, m.AssignmentName, m.Score, status)
	}
	for _, d := range preview.UnmatchedColumns {
		fmt.Fprintf(out, "unmatched column: %q (%s)\n", d.Value, d.Reason)
	}
	for _, d := range preview.UnmatchedRows {
		fmt.Fprintf(out, "unmatched row: %q (%s)\n", d.Value, d.Reason)
	}

	if diff := changesDiff(preview.Changes, usrNames, asgNames); diff != "" {
		fmt.Fprint(out, diff)
	}
	fmt.Fprintf(out, "%d changes\n", len(preview.Changes))

	if !commit {
		return nil
	}

	res := gradeimport.Commit(ctx, preview.Changes, &repoGradeWriter{cli: cli, classID: cls.ID})
	for _, itemErr := range res.Errors {
		fmt.Fprintf(out, "failed: student %s assignment %s: %s\n", itemErr.Item.StudentID, itemErr.Item.AssignmentID, itemErr.Reason)
	}
	fmt.Fprintf(out, "imported %d grades for %d students (%d failures)\n",
		res.ProcessedGrades, res.ProcessedStudents, len(res.Errors))

	_, err = cli.auditRepo.CreateEntry(ctx, audit.Entry{
		ActorID:    "admin-cli",
		Action:     audit.ActionGradeImport,
		ObjectType: "class",
		ObjectID:   cls.ID,
		Detail:     fmt.Sprintf("imported %d grades for %d students", res.ProcessedGrades, res.ProcessedStudents),
		CreatedAt:  time.Now().UTC(),
	})
	return err
}

func (cli *commandLine) roster(ctx context.Context, classID string) ([]gradeimport.Student, map[string]string, error) {
	enrs, err := cli.classRepo.QueryEnrollments(ctx, classID)
	if err != nil {
		return nil, nil, err
	}
	roster := make([]gradeimport.Student, 0, len(enrs))
	names := make(map[string]string, len(enrs))
	for _, enr := range enrs {
		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{ID: enr.StudentID})
		if err != nil {
			if err == user.ErrNotFound {
				continue
			}
			return nil, nil, err
		}
		roster = append(roster, gradeimport.Student{
			ID:      usr.ID,
			Name:    usr.Name,
			LoginID: usr.Username,
			SISID:   usr.SISID,
		})
		names[usr.ID] = usr.Username
	}
	return roster, names, nil
}

// changesDiff renders the change-set as a unified diff of "student assignment = value" lines.
func changesDiff(changes []gradeimport.GradeChange, usrNames, asgNames map[string]string) string {
	if len(changes) == 0 {
		return ""
	}
	a := make([]string, 0, len(changes))
	b := make([]string, 0, len(changes))
	for _, chg := range changes {
		line := fmt.Sprintf("%s %s = ", label(usrNames, chg.StudentID), label(asgNames, chg.AssignmentID))
		a = append(a, line+chg.OldValue+"\n")
		b = append(b, line+chg.NewValue+"\n")
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "stored",
		ToFile:   "imported",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}

func label(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

// repoGradeWriter persists approved changes straight through the repositories.
type repoGradeWriter struct {
	cli     *commandLine
	classID string
}

var _ gradeimport.Writer = (*repoGradeWriter)(nil)

func (w *repoGradeWriter) Apply(ctx context.Context, chg gradeimport.GradeChange) error {
	_, err := w.cli.progressRepo.UpsertRecord(ctx, progress.Record{
		ClassID:      w.classID,
		StudentID:    chg.StudentID,
		AssignmentID: chg.AssignmentID,
		Value:        chg.NewValue,
		UpdatedAt:    time.Now().UTC(),
	})
	return err
}
