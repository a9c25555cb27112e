package excel

// Result workbook sheets, in output order.
const (
	SummarySheet     = "File_Summary"
	HalfKillSheet    = "Half_Kill_Time"
	StatsSheet       = "Half_Kill_Stats"
	PrintSheet       = "Print Report"
	AuditExportSheet = "Audit_Trail"
	WarningsSheet    = "Warnings"
)

var summaryHeaders = []string{
	"App Version", "File Name", "Assay Type", "Assay Status", "Has Data",
	"Effector Time", "Positive Control", "PC Source",
	"Negative Control Found", "Negative Control Behavior", "Positive Control Valid",
	"", "SAMPLE CRITERIA", "  ", "NEGATIVE CONTROL CRITERIA",
}

var halfKillHeaders = []string{
	"Source_File", "Assay_Type", "Assay_Status", "Sample Name", "Well", "Cell Type",
	"Max cell index", "Time (Hour) at max cell index", "Time (hh:mm:ss) at max cell index",
	"Killed below 0.5",
	"Time (Hour) at half cell index", "Time (hh:mm:ss) at half cell index", "Half cell index",
	"Hours from max to half", "Recovered at end",
}

var statsHeaders = []string{
	"Source_File", "Assay_Type", "Assay_Status", "Sample Name", "Role",
	"Number of Replicates", "Killed below 0.5",
	"Average half-killing time (Hour)", "Std Dev (Hour)", "%CV",
	"Validity", "CV Pass", "All Killed", "Mean Pass", "No Recovery",
}

// statsReplicateCol is the 1-based column of "Number of Replicates".
const statsReplicateCol = 6

var printHeaders = []string{
	"Sample Name", "Target",
	"Time (Hour) at max cell index", "Max cell index",
	"Time (Hour) at half cell index", "Half cell index",
}

var auditHeaders = []string{"Source_File", "Action", "ID", "Time"}

var warningHeaders = []string{"Source_File", "Code", "Well", "Sample", "Message"}
