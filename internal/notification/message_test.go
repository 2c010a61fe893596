package notification_test

import (
	"github.com/frahmantamala/it-helpdesk/internal/core/events"
	"github.com/frahmantamala/it-helpdesk/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func snapshot(priority, status string) events.TicketSnapshot {
	return events.TicketSnapshot{
		ID:              "3f6c1a2e-0000-4000-8000-00000000abcde",
		Title:           "Printer jammed",
		Description:     "Paper stuck in tray 2",
		Priority:        priority,
		Status:          status,
		OwnerID:         "u1",
		OwnerName:       "Ana",
		OwnerEmail:      "ana@example.com",
		OwnerDepartment: "Finance",
	}
}

var _ = Describe("Messages", func() {
	It("should address the welcome e-mail to the new user", func() {
		msg, err := notification.WelcomeMessage(events.NewUserRegisteredEvent("u1", "Ana", "ana@example.com", "Finance"))

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.To).To(Equal([]string{"ana@example.com"}))
		Expect(msg.Body).To(ContainSubstring("Welcome, Ana!"))
	})

	It("should reference the ticket by the last five characters of its id", func() {
		msg, err := notification.TicketOwnerMessage(snapshot("NORMAL", "REQUESTED"))

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Subject).To(Equal("Ticket #abcde created"))
		Expect(msg.Body).To(ContainSubstring("**Priority:** Normal"))
	})

	Describe("IT team e-mail", func() {
		It("should flag urgent tickets in the subject", func() {
			msg, err := notification.TicketITTeamMessage(snapshot("URGENT", "REQUESTED"), "it@example.com")

			Expect(err).NotTo(HaveOccurred())
			Expect(msg.To).To(Equal([]string{"it@example.com"}))
			Expect(msg.Subject).To(Equal("[URGENT] New IT ticket opened by Ana"))
			Expect(msg.Body).To(ContainSubstring("> Paper stuck in tray 2"))
			Expect(msg.Body).To(ContainSubstring("**Department:** Finance"))
		})

		It("should leave normal tickets unflagged", func() {
			msg, err := notification.TicketITTeamMessage(snapshot("NORMAL", "REQUESTED"), "it@example.com")

			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Subject).To(Equal("New IT ticket opened by Ana"))
		})
	})

	DescribeTable("status update wording",
		func(status, label, closing string) {
			msg, err := notification.StatusUpdateMessage(snapshot("NORMAL", status))

			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Subject).To(Equal("Update on your ticket #abcde"))
			Expect(msg.Body).To(ContainSubstring("New status: **" + label + "**"))
			Expect(msg.Body).To(ContainSubstring(closing))
		},
		Entry("in progress", "IN_PROGRESS", "In progress", "already working"),
		Entry("completed", "COMPLETED", "Completed", "has been resolved"),
	)
})

var _ = Describe("Renderer", func() {
	It("should render markdown to HTML", func() {
		html, err := notification.NewRenderer().HTML("## Hello\n\n- **Title:** x\n")

		Expect(err).NotTo(HaveOccurred())
		Expect(html).To(ContainSubstring("<h2>Hello</h2>"))
		Expect(html).To(ContainSubstring("<strong>Title:</strong>"))
	})

	It("should drop raw HTML from ticket text", func() {
		html, err := notification.NewRenderer().HTML("<script>alert(1)</script>\n")

		Expect(err).NotTo(HaveOccurred())
		Expect(html).NotTo(ContainSubstring("<script>"))
	})
})
