// SPDX-License-Identifier: MIT

package procgroup

import (
	"os/exec"
	"time"

	xglog "github.com/youngsadsatan/ssYouTube/internal/log"
)

// Terminate stops a process group: SIGTERM, then SIGKILL once grace has
// passed. It drains waitCh and returns the wait error. Safe on nil commands.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	logger := xglog.WithComponent("procgroup")

	if err := Kill(cmd, terminateSignal()); err != nil {
		logger.Debug().Err(err).Int("pid", cmd.Process.Pid).Str(xglog.FieldEvent, "proc.term_failed").Msg("SIGTERM failed")
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-waitCh:
		return err
	case <-timer.C:
		logger.Warn().Int("pid", cmd.Process.Pid).Str(xglog.FieldEvent, "proc.force_kill").Dur("grace", grace).Msg("process ignored SIGTERM, sending SIGKILL")
		_ = Kill(cmd, killSignal())
		return <-waitCh
	}
}
