package lifeperiod

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DomainComputation prefixes the content hash of a Computation.
// Version suffix enables future algorithm migration.
const DomainComputation = "histq/lifeperiod/v1"

// Hash returns a content hash of c. Structurally equal computations hash
// identically.
//
// Format: hex(SHA256(domain + 0x00 + canonical(c)))
func Hash(c Computation) string {
	var sb strings.Builder
	writeCanonical(&sb, c)

	h := sha256.New()
	h.Write([]byte(DomainComputation))
	h.Write([]byte{0x00}) // Null separator prevents domain/data ambiguity
	h.Write([]byte(sb.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// writeCanonical writes an unambiguous prefix encoding of c. Aliases are
// quoted and NFC normalized.
func writeCanonical(sb *strings.Builder, c Computation) {
	switch n := c.(type) {
	case forever:
		sb.WriteString("F")
	case never:
		sb.WriteString("N")
	case RowPeriod:
		sb.WriteString("R")
		sb.WriteString(strconv.Quote(norm.NFC.String(n.Alias)))
	case Intersection:
		sb.WriteString("I(")
		writeCanonical(sb, n.left)
		sb.WriteString(",")
		writeCanonical(sb, n.right)
		sb.WriteString(")")
	case Union:
		sb.WriteString("U(")
		writeCanonical(sb, n.left)
		sb.WriteString(",")
		writeCanonical(sb, n.right)
		sb.WriteString(")")
	case Inverse:
		sb.WriteString("V(")
		writeCanonical(sb, n.inner)
		sb.WriteString(")")
	case Oracle:
		sb.WriteString("O")
		sb.WriteString(strconv.Itoa(n.Index))
		sb.WriteString("(")
		writeCanonical(sb, n.Inner)
		sb.WriteString(")")
	default:
		sb.WriteString("?")
	}
}
