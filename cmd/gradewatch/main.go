package main

import (
	"gradewatch/cmd/gradewatch/commands"
	"gradewatch/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	commands.ExecuteContext(ctx)
}
