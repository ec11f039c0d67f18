package query

// SnapshotValid selects the fact-row versions visible as of the given
// snapshot: valid_from <= S and (valid_to is null or valid_to > S). The
// optional alias prefixes the validity columns (e.g. "tf").
func SnapshotValid(snapshotID int64, alias string) Condition {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	return Raw(
		prefix+"valid_from_snapshot_id <= ? AND ("+
			prefix+"valid_to_snapshot_id IS NULL OR "+
			prefix+"valid_to_snapshot_id > ?)",
		snapshotID, snapshotID,
	)
}
