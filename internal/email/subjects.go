package email

const (
	subjectLeadAssignedFmt = "Ny forespørsel: %s"
	subjectLeadClosedFmt   = "Oppdatering på forespørselen din: %s"
)
