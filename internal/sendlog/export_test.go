package sendlog

var BuildQuery = buildQuery

const LatestErrorReportSQL = latestErrorReportSQL
const InsertLog = insertLog
