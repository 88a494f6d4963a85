package ir

import (
	"fmt"
	"io"
)

// Dump writes an indented listing of p, one op per line.
func Dump(w io.Writer, p Program) (err error) {
	Walk(p, func(o Op, depth int) bool {
		indent := 2 * depth
		switch o := o.(type) {
		case Move:
			_, err = fmt.Fprintf(w, "%*sMOVE %+d\n", indent, "", o.Delta)
		case Modify:
			_, err = fmt.Fprintf(w, "%*sMODIFY %+d\n", indent, "", o.Delta)
		case Write:
			_, err = fmt.Fprintf(w, "%*sWRITE\n", indent, "")
		case Read:
			_, err = fmt.Fprintf(w, "%*sREAD\n", indent, "")
		case *Loop:
			mark := ""
			if o.Fenced {
				mark = " fenced"
			}
			_, err = fmt.Fprintf(w, "%*sLOOP %q%s\n", indent, "", o.Label, mark)
		default:
			err = fmt.Errorf("unknown op type %T", o)
		}
		return err == nil
	})
	return err
}
