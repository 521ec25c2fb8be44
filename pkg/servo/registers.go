package servo

import (
	"fmt"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// SCS0009 control table entries used by the controller.
var (
	regModelNumber     = mustRegister("model_number")
	regTorqueEnable    = mustRegister("torque_enable")
	regGoalPosition    = mustRegister("goal_position")
	regRunningSpeed    = mustRegister("running_speed")
	regPresentPosition = mustRegister("present_position")
	regMoving          = mustRegister("moving")
)

// SCS servos use big-endian words.
var codec = feetech.NewProtocol(feetech.ProtocolSCS)

func mustRegister(name string) feetech.Register {
	reg, ok := feetech.ModelSCS0009.GetRegister(name)
	if !ok {
		panic(fmt.Sprintf("scs0009 register %q not defined", name))
	}
	return reg
}
