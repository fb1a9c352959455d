package domain

import (
	"errors"
	"fmt"
	"strings"
)

type ApplicationDomain string

const (
	DomainBiometricIdentification ApplicationDomain = "biometric_identification"
	DomainCriticalInfrastructure  ApplicationDomain = "critical_infrastructure"
	DomainEducation               ApplicationDomain = "education"
	DomainEmployment              ApplicationDomain = "employment"
	DomainEssentialServices       ApplicationDomain = "essential_services"
	DomainLawEnforcement          ApplicationDomain = "law_enforcement"
	DomainMigrationAsylum         ApplicationDomain = "migration_asylum"
	DomainJusticeDemocracy        ApplicationDomain = "justice_democracy"
	DomainHealthcare              ApplicationDomain = "healthcare"
	DomainFinance                 ApplicationDomain = "finance"
	DomainTransport               ApplicationDomain = "transport"
	DomainEnergy                  ApplicationDomain = "energy"
	DomainSocialMedia             ApplicationDomain = "social_media"
	DomainGaming                  ApplicationDomain = "gaming"
	DomainGeneralPurpose          ApplicationDomain = "general_purpose"
	DomainOther                   ApplicationDomain = "other"
)

var domainDescriptions = map[ApplicationDomain]string{
	DomainBiometricIdentification: "Biometric identification and verification systems",
	DomainCriticalInfrastructure:  "Critical infrastructure safety and security",
	DomainEducation:               "Educational and vocational training systems",
	DomainEmployment:              "Employment, worker management, and recruitment",
	DomainEssentialServices:       "Essential private and public services access",
	DomainLawEnforcement:          "Law enforcement applications",
	DomainMigrationAsylum:         "Migration, asylum and border control",
	DomainJusticeDemocracy:        "Administration of justice and democratic processes",
	DomainHealthcare:              "Healthcare and medical applications",
	DomainFinance:                 "Financial services and credit assessment",
	DomainTransport:               "Transportation and autonomous vehicles",
	DomainEnergy:                  "Energy grid and utilities management",
	DomainSocialMedia:             "Social media and content platforms",
	DomainGaming:                  "Gaming and entertainment",
	DomainGeneralPurpose:          "General purpose AI systems",
	DomainOther:                   "Other applications not listed above",
}

func (d ApplicationDomain) Valid() bool {
	_, ok := domainDescriptions[d]
	return ok
}

func (d ApplicationDomain) Description() string {
	return domainDescriptions[d]
}

// KnownDomains lists all application domains in a stable order.
func KnownDomains() []ApplicationDomain {
	return []ApplicationDomain{
		DomainBiometricIdentification,
		DomainCriticalInfrastructure,
		DomainEducation,
		DomainEmployment,
		DomainEssentialServices,
		DomainLawEnforcement,
		DomainMigrationAsylum,
		DomainJusticeDemocracy,
		DomainHealthcare,
		DomainFinance,
		DomainTransport,
		DomainEnergy,
		DomainSocialMedia,
		DomainGaming,
		DomainGeneralPurpose,
		DomainOther,
	}
}

type DataType string

const (
	DataPersonal      DataType = "personal_data"
	DataBiometric     DataType = "biometric_data"
	DataHealth        DataType = "health_data"
	DataFinancial     DataType = "financial_data"
	DataBehavioral    DataType = "behavioral_data"
	DataLocation      DataType = "location_data"
	DataCommunication DataType = "communication_data"
	DataAudioVisual   DataType = "audio_visual"
	DataTextDocuments DataType = "text_documents"
	DataSensor        DataType = "sensor_data"
	DataPublic        DataType = "public_data"
)

type DeploymentContext string

const (
	DeployPublicSpace    DeploymentContext = "public_space"
	DeployWorkplace      DeploymentContext = "workplace"
	DeployEducational    DeploymentContext = "educational_institution"
	DeployHealthcare     DeploymentContext = "healthcare_facility"
	DeployOnlinePlatform DeploymentContext = "online_platform"
	DeployMobileApp      DeploymentContext = "mobile_application"
	DeployEmbedded       DeploymentContext = "embedded_system"
	DeployCloudService   DeploymentContext = "cloud_service"
	DeployPrivateUse     DeploymentContext = "private_use"
	DeploySafetyCritical DeploymentContext = "safety_critical"
)

// FeatureFlags are the declared structured capabilities of a system.
// They complement, not replace, the free-text description: the
// classifier considers both.
type FeatureFlags struct {
	SocialScoring           bool `json:"social_scoring,omitempty"`
	SubliminalManipulation  bool `json:"subliminal_manipulation,omitempty"`
	RealTimeBiometricID     bool `json:"real_time_biometric_id,omitempty"`
	EmotionRecognition      bool `json:"emotion_recognition,omitempty"`
	BiometricCategorization bool `json:"biometric_categorization,omitempty"`
	ConversationalInterface bool `json:"conversational_interface,omitempty"`
	GeneratesContent        bool `json:"generates_content,omitempty"`
	SafetyComponent         bool `json:"safety_component,omitempty"`
	AutomatedDecisions      bool `json:"automated_decisions,omitempty"`
}

// SystemDescription is the caller-supplied description of an AI system.
// It is immutable once submitted: the engine only reads it.
type SystemDescription struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Description       string              `json:"description"`
	Domain            ApplicationDomain   `json:"domain"`
	AdditionalDomains []ApplicationDomain `json:"additional_domains,omitempty"`
	DataTypes         []DataType          `json:"data_types"`
	DeploymentContext DeploymentContext   `json:"deployment_context"`
	Features          FeatureFlags        `json:"features,omitempty"`
	TargetUsers       string              `json:"target_users,omitempty"`
	GeographicScope   []string            `json:"geographic_scope,omitempty"`
	EstimatedUsers    int                 `json:"estimated_users,omitempty"`
	DevelopmentStage  string              `json:"development_stage,omitempty"`
	RiskMitigation    string              `json:"risk_mitigation,omitempty"`
}

const (
	minDescriptionLen = 10
	maxDescriptionLen = 50000
)

// Validate is the only caller-visible failure mode of the engine:
// a description that fails here never enters the pipeline.
func (d *SystemDescription) Validate() error {
	if d == nil {
		return WrapError(ErrInvalidInput, "validate description", errors.New("description is nil"))
	}
	if strings.TrimSpace(d.Name) == "" {
		return WrapError(ErrInvalidInput, "validate description", errors.New("name is required"))
	}
	if n := len(strings.TrimSpace(d.Description)); n < minDescriptionLen {
		return WrapError(ErrInvalidInput, "validate description",
			fmt.Errorf("description must be at least %d characters", minDescriptionLen))
	} else if n > maxDescriptionLen {
		return WrapError(ErrInvalidInput, "validate description",
			fmt.Errorf("description exceeds maximum length of %d", maxDescriptionLen))
	}
	if !d.Domain.Valid() {
		return WrapError(ErrInvalidInput, "validate description",
			fmt.Errorf("unknown application domain: %q", d.Domain))
	}
	for _, extra := range d.AdditionalDomains {
		if !extra.Valid() {
			return WrapError(ErrInvalidInput, "validate description",
				fmt.Errorf("unknown additional domain: %q", extra))
		}
	}
	if len(d.DataTypes) == 0 {
		return WrapError(ErrInvalidInput, "validate description",
			errors.New("at least one data type is required"))
	}
	return nil
}

// Domains returns the primary domain followed by any additional ones.
func (d *SystemDescription) Domains() []ApplicationDomain {
	out := make([]ApplicationDomain, 0, 1+len(d.AdditionalDomains))
	out = append(out, d.Domain)
	out = append(out, d.AdditionalDomains...)
	return out
}
