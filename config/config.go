// Package config holds the charger core's compile-time configuration
// values as one explicit struct, so the controller and monitor dispatch
// on fields of a value instead of preprocessor-gated code paths. A typed
// Config value is built by a Default() constructor, with optional JSON
// overrides layered on via github.com/andreyvit/tinyjson.
package config

import (
	"github.com/andreyvit/tinyjson"

	"bq25703a-charger/errcode"
)

// Config is every threshold and feature toggle the charger core reads.
// Voltages and currents are milli-units (mV, mA); power is milliwatts.
type Config struct {
	// Feature toggles.
	EnableBalancing       bool `json:"enable_balancing"`
	AttemptUVPRecovery    bool `json:"attempt_uvp_recovery"`
	ContinuousUVPRecovery bool `json:"continuous_uvp_recovery"`

	// FixedVoltageCharging and its setpoints are carried in configuration,
	// but no control-loop operation branches on them: the charge voltage
	// always comes from the per-cell-count table.
	FixedVoltageCharging   bool  `json:"fixed_voltage_charging"`
	FixedVoltageSetpointMV int32 `json:"fixed_voltage_setpoint_mv"`
	FixedVoltagePrechargeMV int32 `json:"fixed_voltage_precharge_mv"`

	// NumSeries is the product's nominal series cell count; the battery
	// monitor's ladder inference is authoritative at runtime and overrides
	// this when they disagree.
	NumSeries int `json:"num_series"`

	// Connectivity and safety thresholds (mV per cell unless noted).
	VConnectedMV      int32 `json:"v_connected_mv"`
	VCellUVHardMV     int32 `json:"v_cell_uv_hard_mv"`
	VCellOVHardMV     int32 `json:"v_cell_ov_hard_mv"`
	VCellOVDischargeMV int32 `json:"v_cell_ov_discharge_mv"`
	VCellUVPRecoverMV int32 `json:"v_cell_uvp_recover_mv"`
	VCellChargeEnableMV int32 `json:"v_cell_charge_enable_mv"`
	VCellMinBalanceMV int32 `json:"v_cell_min_balance_mv"`

	// Temperature thresholds, degrees Celsius.
	TMaxOpC    int32 `json:"t_max_op_c"`
	TRecoverC  int32 `json:"t_recover_c"`
	TThrottleC int32 `json:"t_throttle_c"`

	// Balancing controller parameters.
	CellBalancingScalarMax  int32 `json:"cell_balancing_scalar_max"`
	CellDeltaVEnableMV      int32 `json:"cell_delta_v_enable_mv"`
	CellBalancingHysteresisMV int32 `json:"cell_balancing_hysteresis_mv"`

	// Charge envelope and termination parameters.
	MaxChargingPowerMW        int32 `json:"max_charging_power_mw"`
	MaxChargeCurrentMA        int32 `json:"max_charge_current_ma"`
	AssumeEfficiencyPercent   int32 `json:"assume_efficiency_percent"`
	UVPRecoveryCurrentMA      int32 `json:"uvp_recovery_current_ma"`
	ChargeTermCurrentMA       int32 `json:"charge_term_current_ma"`
	BatteryDisconnectThresholdMV int32 `json:"battery_disconnect_threshold_mv"`

	// NUVPAttempts bounds the boot-time UVP-recovery outer loop.
	NUVPAttempts int `json:"n_uvp_attempts"`
}

// Default returns reasonable BQ25703A-class defaults for a 1-4S pack. The
// thermal-derate coefficients are hard-coded in internal/charger since
// they are not configurable.
func Default() Config {
	return Config{
		EnableBalancing:       true,
		AttemptUVPRecovery:    true,
		ContinuousUVPRecovery: false,

		FixedVoltageCharging:    false,
		FixedVoltageSetpointMV:  0,
		FixedVoltagePrechargeMV: 0,

		NumSeries: 4,

		VConnectedMV:        500,
		VCellUVHardMV:       2500,
		VCellOVHardMV:       4220,
		VCellOVDischargeMV:  4200,
		VCellUVPRecoverMV:   3000,
		VCellChargeEnableMV: 4100,
		VCellMinBalanceMV:   3000,

		TMaxOpC:    85,
		TRecoverC:  75,
		TThrottleC: 20,

		CellBalancingScalarMax:    3,
		CellDeltaVEnableMV:        50,
		CellBalancingHysteresisMV: 20,

		MaxChargingPowerMW:            65000,
		MaxChargeCurrentMA:            6000,
		AssumeEfficiencyPercent:       90,
		UVPRecoveryCurrentMA:          500,
		ChargeTermCurrentMA:           100,
		BatteryDisconnectThresholdMV:  4300,

		NUVPAttempts: 300,
	}
}

// ApplyOverrides parses a JSON object of field overrides onto c
// (tinyjson has no struct-tag decoder; Value() yields a map[string]any).
// Unrecognized or absent keys leave c's existing values untouched.
func (c *Config) ApplyOverrides(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	r := tinyjson.Raw(raw)
	val := r.Value()
	if err := r.EnsureEOF(); err != nil {
		return err
	}

	m, ok := val.(map[string]any)
	if !ok {
		return errcode.InvalidParams
	}

	for k, v := range m {
		switch k {
		case "enable_balancing":
			setBool(&c.EnableBalancing, v)
		case "attempt_uvp_recovery":
			setBool(&c.AttemptUVPRecovery, v)
		case "continuous_uvp_recovery":
			setBool(&c.ContinuousUVPRecovery, v)
		case "fixed_voltage_charging":
			setBool(&c.FixedVoltageCharging, v)
		case "fixed_voltage_setpoint_mv":
			setInt32(&c.FixedVoltageSetpointMV, v)
		case "fixed_voltage_precharge_mv":
			setInt32(&c.FixedVoltagePrechargeMV, v)
		case "num_series":
			setInt(&c.NumSeries, v)
		case "v_connected_mv":
			setInt32(&c.VConnectedMV, v)
		case "v_cell_uv_hard_mv":
			setInt32(&c.VCellUVHardMV, v)
		case "v_cell_ov_hard_mv":
			setInt32(&c.VCellOVHardMV, v)
		case "v_cell_ov_discharge_mv":
			setInt32(&c.VCellOVDischargeMV, v)
		case "v_cell_uvp_recover_mv":
			setInt32(&c.VCellUVPRecoverMV, v)
		case "v_cell_charge_enable_mv":
			setInt32(&c.VCellChargeEnableMV, v)
		case "v_cell_min_balance_mv":
			setInt32(&c.VCellMinBalanceMV, v)
		case "t_max_op_c":
			setInt32(&c.TMaxOpC, v)
		case "t_recover_c":
			setInt32(&c.TRecoverC, v)
		case "t_throttle_c":
			setInt32(&c.TThrottleC, v)
		case "cell_balancing_scalar_max":
			setInt32(&c.CellBalancingScalarMax, v)
		case "cell_delta_v_enable_mv":
			setInt32(&c.CellDeltaVEnableMV, v)
		case "cell_balancing_hysteresis_mv":
			setInt32(&c.CellBalancingHysteresisMV, v)
		case "max_charging_power_mw":
			setInt32(&c.MaxChargingPowerMW, v)
		case "max_charge_current_ma":
			setInt32(&c.MaxChargeCurrentMA, v)
		case "assume_efficiency_percent":
			setInt32(&c.AssumeEfficiencyPercent, v)
		case "uvp_recovery_current_ma":
			setInt32(&c.UVPRecoveryCurrentMA, v)
		case "charge_term_current_ma":
			setInt32(&c.ChargeTermCurrentMA, v)
		case "battery_disconnect_threshold_mv":
			setInt32(&c.BatteryDisconnectThresholdMV, v)
		case "n_uvp_attempts":
			setInt(&c.NUVPAttempts, v)
		}
	}
	return nil
}

func setBool(dst *bool, v any) {
	if b, ok := v.(bool); ok {
		*dst = b
	}
}

func setInt32(dst *int32, v any) {
	if f, ok := v.(float64); ok {
		*dst = int32(f)
	}
}

func setInt(dst *int, v any) {
	if f, ok := v.(float64); ok {
		*dst = int(f)
	}
}
