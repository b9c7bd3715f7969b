package service

import (
	"bytes"
	"fmt"
	"strings"

	"go-telehealth-booking/internal/domain/entity"

	"github.com/jung-kurt/gofpdf"
)

// NoMedicationsPlaceholder is rendered when a prescription has no line items,
// so the medications section is never an empty list.
const NoMedicationsPlaceholder = "No medications prescribed"

// DocumentSection is one heading plus its lines. Sections with no backing
// data are omitted entirely; a heading is never rendered over nothing.
type DocumentSection struct {
	Heading string
	Lines   []string
}

// PrescriptionDocument is the deterministic, field-by-field layout of a
// medical record, independent of the PDF backend.
type PrescriptionDocument struct {
	Title    string
	Sections []DocumentSection
}

// BuildPrescriptionDocument lays out a medical record for rendering.
// Layout contract: identity block, diagnosis, medications (placeholder when
// empty), then notes and follow-up only when present.
func BuildPrescriptionDocument(record *entity.MedicalRecord, appointment *entity.Appointment, patient, doctor *entity.User) *PrescriptionDocument {
	doc := &PrescriptionDocument{Title: "Prescription"}

	identity := []string{
		fmt.Sprintf("Patient: %s", patient.FullName),
		fmt.Sprintf("Doctor: Dr. %s", doctor.FullName),
	}
	if doctor.DoctorProfile != nil && doctor.DoctorProfile.Specialization != "" {
		identity = append(identity, fmt.Sprintf("Specialization: %s", doctor.DoctorProfile.Specialization))
	}
	identity = append(identity,
		fmt.Sprintf("Consultation: %s %s", appointment.AppointmentDate.Format("02 Jan 2006"), appointment.TimeSlot),
		fmt.Sprintf("Issued: %s", record.CreatedAt.Format("02 Jan 2006")),
	)
	doc.Sections = append(doc.Sections, DocumentSection{Heading: "Consultation Details", Lines: identity})

	doc.Sections = append(doc.Sections, DocumentSection{
		Heading: "Diagnosis",
		Lines:   []string{record.Diagnosis},
	})

	medications := DocumentSection{Heading: "Medications"}
	if len(record.Prescription) == 0 {
		medications.Lines = []string{NoMedicationsPlaceholder}
	} else {
		for i, item := range record.Prescription {
			line := fmt.Sprintf("%d. %s - %s, %s", i+1, item.Medication, item.Dosage, item.Frequency)
			if item.Instructions != "" {
				line += fmt.Sprintf(" (%s)", item.Instructions)
			}
			medications.Lines = append(medications.Lines, line)
		}
	}
	doc.Sections = append(doc.Sections, medications)

	if strings.TrimSpace(record.Notes) != "" {
		doc.Sections = append(doc.Sections, DocumentSection{
			Heading: "Notes",
			Lines:   []string{record.Notes},
		})
	}

	if record.FollowUpRequired {
		followUp := DocumentSection{Heading: "Follow-up"}
		if record.FollowUpDate != nil {
			followUp.Lines = append(followUp.Lines, fmt.Sprintf("Date: %s", record.FollowUpDate.Format("02 Jan 2006")))
		}
		if record.FollowUpNotes != "" {
			followUp.Lines = append(followUp.Lines, record.FollowUpNotes)
		}
		if len(followUp.Lines) == 0 {
			followUp.Lines = []string{"Follow-up consultation required"}
		}
		doc.Sections = append(doc.Sections, followUp)
	}

	return doc
}

// RenderPrescriptionPDF renders a document to PDF bytes.
func RenderPrescriptionPDF(doc *PrescriptionDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, doc.Title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, section := range doc.Sections {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, section.Heading, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, line := range section.Lines {
			pdf.MultiCell(0, 6, line, "", "L", false)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
