package ring

import "tinygo.org/x/bluetooth"

const (
	// Colmi vendor service
	MainServiceUUID    = "de5bf728-d711-4e47-af26-65e3012a5dc7"
	MainWriteCharUUID  = "de5bf72a-d711-4e47-af26-65e3012a5dc7"
	MainNotifyCharUUID = "de5bf729-d711-4e47-af26-65e3012a5dc7"

	// Nordic UART style service used for commands
	RXTXServiceUUID    = "6e40fff0-b5a3-f393-e0a9-e50e24dcca9e"
	RXTXWriteCharUUID  = "6e400002-b5a3-f393-e0a9-e50e24dcca9e" // Write
	RXTXNotifyCharUUID = "6e400003-b5a3-f393-e0a9-e50e24dcca9e" // Notify

	// DeviceNamePrefix is the advertised name prefix of Colmi rings.
	DeviceNamePrefix = "COLMI"
)

var (
	mainService    = mustParseUUID(MainServiceUUID)
	mainNotifyChar = mustParseUUID(MainNotifyCharUUID)
	rxtxService    = mustParseUUID(RXTXServiceUUID)
	rxtxWriteChar  = mustParseUUID(RXTXWriteCharUUID)
	rxtxNotifyChar = mustParseUUID(RXTXNotifyCharUUID)
)

func mustParseUUID(s string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return uuid
}
