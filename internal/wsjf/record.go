package wsjf

import "bytes"

// ParseRecord extracts the first two whitespace-separated tokens of a
// line-delimited record as tag and cid, per spec §6. They're purely
// observational — logged for operators, never consulted by the scheduler.
func ParseRecord(line []byte) (tag, cid string) {
	fields := bytes.Fields(line)
	if len(fields) > 0 {
		tag = string(fields[0])
	}
	if len(fields) > 1 {
		cid = string(fields[1])
	}
	return tag, cid
}
