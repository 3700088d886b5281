package rule_test

import (
	"testing"

	"github.com/imap-mag/magvault/pkg/rule"
)

type retentionRule struct {
	Name       string `rule:"required"`
	KeepLatest int    `rule:"min=1"`
}

func TestEngine(t *testing.T) {
	engine := rule.Engine()
	if engine == nil {
		t.Error("Engine() returned nil")
	}
}

func TestValidateStruct(t *testing.T) {
	valid := retentionRule{Name: "norm-daily", KeepLatest: 2}

	err := rule.ValidateStruct(valid)
	if err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	// missing name
	missingName := retentionRule{Name: "", KeepLatest: 2}

	err = rule.ValidateStruct(missingName)
	if err == nil {
		t.Error("Expected error for struct with missing name, got nil")
	}

	// keep_latest below the floor
	badKeep := retentionRule{Name: "norm-daily", KeepLatest: 0}

	err = rule.ValidateStruct(badKeep)
	if err == nil {
		t.Error("Expected error for keep_latest below 1, got nil")
	}
}

func TestValidateVar(t *testing.T) {
	err := rule.ValidateVar("localhost:4222", "hostname_port")
	if err != nil {
		t.Errorf("Expected no error for valid hostname_port, got %v", err)
	}

	err = rule.ValidateVar("not a host port", "hostname_port")
	if err == nil {
		t.Error("Expected error for invalid hostname_port, got nil")
	}
}

func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("verpart", "required,alphanum")

	err := rule.ValidateVar("v001", "verpart")
	if err != nil {
		t.Errorf("Expected no error for alias rule, got %v", err)
	}

	err = rule.ValidateVar("", "verpart")
	if err == nil {
		t.Error("Expected error for empty value under alias rule, got nil")
	}
}
