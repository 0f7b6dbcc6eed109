package main

import (
	"scoreportal-backend/cmd/scoreportal-cli/commands"
	"scoreportal-backend/lib/osutil"
	"scoreportal-backend/lib/telemetry"
)

func main() {
	ctx := osutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "scoreportal-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(ctx)
}
