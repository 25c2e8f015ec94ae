package fitness

import (
	"strconv"
	"strings"
)

func splitFields(line string) []string {
	return strings.Fields(line)
}

func parseIntField(s string) (int, error) {
	return strconv.Atoi(s)
}
