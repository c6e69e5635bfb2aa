package installer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/paths"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/utils"
)

// Registry is the part of the bundle registry the installer drives
type Registry interface {
	HasUserID(userID int32) bool
	GenerateUidAndGid(userInfo *types.InnerBundleUserInfo) error
	GetInnerBundleInfo(name, deviceID string) (*types.InnerBundleInfo, bool)
	EnableBundle(name string) bool
	UpdateBundleInstallState(ctx context.Context, name string, target types.InstallState) bool
	AddInnerBundleInfo(ctx context.Context, name string, info *types.InnerBundleInfo) error
	AddNewModuleInfo(ctx context.Context, name string, newInfo *types.InnerBundleInfo) error
	UpdateInnerBundleInfo(ctx context.Context, name string, newInfo *types.InnerBundleInfo) error
	RemoveModuleInfo(ctx context.Context, name, moduleName string) error
	AddInnerBundleUserInfo(ctx context.Context, name string, userInfo *types.InnerBundleUserInfo) error
	RemoveInnerBundleUserInfo(ctx context.Context, name string, userID int32) error
}

// Notifier receives one status report per completed operation
type Notifier interface {
	NotifyBundleStatus(ctx context.Context, data types.NotifyData) bool
}

// PreInstallTable flags factory bundles removed by the user
type PreInstallTable interface {
	MarkUninstalled(ctx context.Context, bundleName string, uninstalled bool) (bool, error)
}

// UsageTracker drops or retires usage records of removed bundles
type UsageTracker interface {
	OnBundleRemoved(ctx context.Context, bundleName string, keepUsage bool) error
}

// InstallOptions tunes Install
type InstallOptions struct {
	// ReplaceExisting allows modules already installed to be replaced
	ReplaceExisting bool `json:"replace_existing"`
}

// UninstallOptions tunes Uninstall
type UninstallOptions struct {
	// KeepUsage keeps usage records flagged as removed
	KeepUsage bool `json:"keep_usage"`
}

// Installer sequences registry calls for install and uninstall
type Installer struct {
	registry   Registry
	notifier   Notifier
	preinstall PreInstallTable
	usage      UsageTracker
	log        *zap.Logger
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer
	now        func() time.Time
}

// New creates an installer over registry reporting to notifier
func New(registry Registry, notifier Notifier, log *zap.Logger) *Installer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Installer{
		registry: registry,
		notifier: notifier,
		log:      log.Named("installer"),
		now:      time.Now,
	}
}

// WithPreInstall sets the pre-install table updated on uninstall
func (in *Installer) WithPreInstall(table PreInstallTable) *Installer {
	in.preinstall = table
	return in
}

// WithUsage sets the usage tracker cleared on uninstall
func (in *Installer) WithUsage(tracker UsageTracker) *Installer {
	in.usage = tracker
	return in
}

// WithMetrics sets the metrics collector
func (in *Installer) WithMetrics(metrics *monitoring.Metrics) *Installer {
	in.metrics = metrics
	return in
}

// WithTracer records one span per operation
func (in *Installer) WithTracer(tracer *tracing.Tracer) *Installer {
	in.tracer = tracer
	return in
}

// operation carries the bookkeeping of one installer call
type operation struct {
	id     id.OperationID
	log    *zap.Logger
	timer  *monitoring.Timer
	span   *tracing.Span
	notify types.NotifyData
}

func (in *Installer) begin(ctx context.Context, kind, name string, notifyType types.NotifyType, userID int32) (*operation, context.Context) {
	opID := id.NewOperationID()
	op := &operation{
		id: opID,
		log: in.log.With(
			zap.String("operation_id", opID.String()),
			zap.String("operation", kind),
			zap.String("bundle", name),
			zap.Int32("user", userID)),
		timer:  monitoring.NewTimer(in.metrics, kind),
		notify: types.NotifyData{BundleName: name, Type: notifyType, UserID: userID},
	}
	if in.tracer != nil {
		op.span, ctx = in.tracer.StartSpan(ctx, "installer."+kind)
		op.span.SetTag("operation_id", opID.String())
		op.span.SetTag("bundle", name)
		op.log = op.log.With(zap.String("trace_id", string(op.span.TraceID)))
	}
	return op, ctx
}

// finish reports the result to the notifier and stops the timer
func (in *Installer) finish(ctx context.Context, op *operation, code Code, err error) Result {
	op.notify.ResultCode = int32(code)
	if op.notify.BundleName != "" && in.notifier != nil {
		in.notifier.NotifyBundleStatus(ctx, op.notify)
	}
	op.timer.Stop(code.String())
	if op.span != nil {
		op.span.SetTag("code", code.String())
		if err != nil {
			op.span.SetError(err)
		}
		op.span.Finish()
		in.tracer.Submit(op.span)
	}

	res := Result{
		Code:        code,
		BundleName:  op.notify.BundleName,
		UID:         op.notify.UID,
		OperationID: op.id.String(),
	}
	if err != nil {
		res.Message = err.Error()
		op.log.Warn("Installer operation failed", zap.Stringer("code", code), zap.Error(err))
		return res
	}
	op.log.Info("Installer operation complete", zap.Int32("uid", op.notify.UID))
	return res
}

// ============================================================================
// Install
// ============================================================================

// Install installs a parsed bundle record for userID. It handles a fresh
// install, new or replaced modules of an installed bundle, and adding a
// user to an installed bundle.
func (in *Installer) Install(ctx context.Context, info *types.InnerBundleInfo, userID int32, opts InstallOptions) Result {
	name := ""
	if info != nil {
		name = info.BundleName
	}
	op, ctx := in.begin(ctx, "install", name, types.NotifyInstall, userID)

	if info == nil {
		return in.finish(ctx, op, ErrInstallParamError, fmt.Errorf("bundle record is required"))
	}
	if err := utils.ValidateStruct(info); err != nil {
		return in.finish(ctx, op, ErrInstallParamError, err)
	}
	if !in.registry.HasUserID(userID) {
		return in.finish(ctx, op, ErrInstallUserNotExist, fmt.Errorf("user %d is not registered", userID))
	}

	existing, ok := in.registry.GetInnerBundleInfo(name, types.CurrentDeviceID)
	if !ok {
		return in.installFresh(ctx, op, info, userID)
	}
	defer in.registry.EnableBundle(name)

	if info.VersionCode < existing.VersionCode {
		return in.finish(ctx, op, ErrInstallVersionDowngrade,
			fmt.Errorf("version %d is older than installed %d", info.VersionCode, existing.VersionCode))
	}

	var newModules, replaced int
	for moduleName := range info.Modules {
		if existing.HasModule(moduleName) {
			replaced++
		} else {
			newModules++
		}
	}
	hasUser := existing.HasUserInfo(userID)

	if newModules == 0 && info.VersionCode == existing.VersionCode && !hasUser {
		return in.addUser(ctx, op, name, userID)
	}
	if replaced > 0 && !opts.ReplaceExisting {
		return in.finish(ctx, op, ErrInstallAlreadyExist, fmt.Errorf("%d modules already installed", replaced))
	}

	op.notify.Type = types.NotifyUpdate
	if u, ok := existing.UserInfo(userID); ok {
		op.notify.UID = u.UID
	}
	if code, err := in.updateModules(ctx, name, info, replaced > 0); err != nil {
		return in.finish(ctx, op, code, err)
	}
	if !hasUser {
		if code, err := in.changeUser(ctx, op, name, userID); err != nil {
			return in.finish(ctx, op, code, err)
		}
	}
	return in.finish(ctx, op, ErrOK, nil)
}

func (in *Installer) installFresh(ctx context.Context, op *operation, info *types.InnerBundleInfo, userID int32) Result {
	name := info.BundleName
	if err := paths.ValidateBundleName(name); err != nil {
		return in.finish(ctx, op, ErrInstallParamError, err)
	}
	if !in.registry.UpdateBundleInstallState(ctx, name, types.InstallStart) {
		return in.finish(ctx, op, ErrInstallStateError, fmt.Errorf("install of %s already in progress", name))
	}

	userInfo, err := in.newUserInfo(name, userID)
	if err != nil {
		in.registry.UpdateBundleInstallState(ctx, name, types.InstallFail)
		return in.finish(ctx, op, ErrInstallInternalError, err)
	}
	op.notify.UID = userInfo.UID

	rec := info.Clone()
	rec.UserInfos = nil
	rec.AddUserInfo(userInfo)
	rec.ApplicationInfo.UID = userInfo.UID
	applyLayout(rec)

	if err := in.registry.AddInnerBundleInfo(ctx, name, rec); err != nil {
		in.registry.UpdateBundleInstallState(ctx, name, types.InstallFail)
		return in.finish(ctx, op, ErrInstallInternalError, err)
	}
	if !in.registry.UpdateBundleInstallState(ctx, name, types.InstallSuccess) {
		return in.finish(ctx, op, ErrInstallStateError, fmt.Errorf("failed to close install of %s", name))
	}
	return in.finish(ctx, op, ErrOK, nil)
}

// applyLayout fills code and data directories the parser left empty
func applyLayout(rec *types.InnerBundleInfo) {
	layout := paths.ForBundle(rec.BundleName, rec.IsSystemApp())
	if rec.ApplicationInfo.CodePath == "" {
		rec.ApplicationInfo.CodePath = layout.CodeDir()
	}
	if rec.ApplicationInfo.DataDir == "" {
		rec.ApplicationInfo.DataDir = layout.DataDir()
	}
}

// updateModules merges or replaces modules. A failed mutation rolls back to
// INSTALL_SUCCESS with the previous record intact.
func (in *Installer) updateModules(ctx context.Context, name string, info *types.InnerBundleInfo, replace bool) (Code, error) {
	if !in.registry.UpdateBundleInstallState(ctx, name, types.UpdatingStart) {
		return ErrInstallStateError, fmt.Errorf("cannot start update of %s", name)
	}
	if !in.registry.UpdateBundleInstallState(ctx, name, types.UpdatingSuccess) {
		return ErrInstallStateError, fmt.Errorf("cannot commit update of %s", name)
	}

	rec := info.Clone()
	rec.UserInfos = nil
	var err error
	if replace {
		err = in.registry.UpdateInnerBundleInfo(ctx, name, rec)
	} else {
		err = in.registry.AddNewModuleInfo(ctx, name, rec)
	}
	if err != nil {
		in.registry.UpdateBundleInstallState(ctx, name, types.RollBack)
		in.registry.UpdateBundleInstallState(ctx, name, types.InstallSuccess)
		return ErrInstallInternalError, err
	}
	if !in.registry.UpdateBundleInstallState(ctx, name, types.InstallSuccess) {
		return ErrInstallStateError, fmt.Errorf("failed to close update of %s", name)
	}
	return ErrOK, nil
}

func (in *Installer) addUser(ctx context.Context, op *operation, name string, userID int32) Result {
	if code, err := in.changeUser(ctx, op, name, userID); err != nil {
		return in.finish(ctx, op, code, err)
	}
	return in.finish(ctx, op, ErrOK, nil)
}

// changeUser adds userID to an installed bundle under USER_CHANGE
func (in *Installer) changeUser(ctx context.Context, op *operation, name string, userID int32) (Code, error) {
	if !in.registry.UpdateBundleInstallState(ctx, name, types.UserChange) {
		return ErrInstallStateError, fmt.Errorf("cannot change users of %s", name)
	}

	userInfo, err := in.newUserInfo(name, userID)
	if err == nil {
		err = in.registry.AddInnerBundleUserInfo(ctx, name, userInfo)
	}
	in.registry.UpdateBundleInstallState(ctx, name, types.InstallSuccess)
	if err != nil {
		return ErrInstallInternalError, err
	}
	op.notify.UID = userInfo.UID
	return ErrOK, nil
}

func (in *Installer) newUserInfo(name string, userID int32) (*types.InnerBundleUserInfo, error) {
	now := in.now().UnixMilli()
	userInfo := &types.InnerBundleUserInfo{
		BundleName: name,
		BundleUserInfo: types.BundleUserInfo{
			UserID:      userID,
			Enabled:     true,
			InstallTime: now,
			UpdateTime:  now,
		},
	}
	if err := in.registry.GenerateUidAndGid(userInfo); err != nil {
		return nil, err
	}
	return userInfo, nil
}

// ============================================================================
// Uninstall
// ============================================================================

// Uninstall removes name for userID. The record is deleted when the last
// user goes.
func (in *Installer) Uninstall(ctx context.Context, name string, userID int32, opts UninstallOptions) Result {
	op, ctx := in.begin(ctx, "uninstall", name, types.NotifyUninstallBundle, userID)

	existing, code, err := in.lookupForUninstall(name, userID)
	if err != nil {
		return in.finish(ctx, op, code, err)
	}
	defer in.registry.EnableBundle(name)

	if u, ok := existing.UserInfo(userID); ok {
		op.notify.UID = u.UID
	}
	if !in.registry.UpdateBundleInstallState(ctx, name, types.UninstallStart) {
		return in.finish(ctx, op, ErrInstallStateError, fmt.Errorf("cannot start uninstall of %s", name))
	}

	if len(existing.UserInfos) > 1 {
		if err := in.registry.RemoveInnerBundleUserInfo(ctx, name, userID); err != nil {
			in.registry.UpdateBundleInstallState(ctx, name, types.UninstallFail)
			return in.finish(ctx, op, ErrInstallInternalError, err)
		}
		in.registry.UpdateBundleInstallState(ctx, name, types.InstallSuccess)
		return in.finish(ctx, op, ErrOK, nil)
	}

	if !in.registry.UpdateBundleInstallState(ctx, name, types.UninstallSuccess) {
		in.registry.UpdateBundleInstallState(ctx, name, types.UninstallFail)
		return in.finish(ctx, op, ErrInstallInternalError, fmt.Errorf("failed to delete %s", name))
	}
	in.afterRemoval(ctx, op, name, opts.KeepUsage)
	return in.finish(ctx, op, ErrOK, nil)
}

// UninstallModule removes one module of name. Removing the only module
// uninstalls the bundle for userID.
func (in *Installer) UninstallModule(ctx context.Context, name, moduleName string, userID int32, opts UninstallOptions) Result {
	op, ctx := in.begin(ctx, "uninstall_module", name, types.NotifyUninstallModule, userID)
	op.notify.ModuleName = moduleName

	existing, code, err := in.lookupForUninstall(name, userID)
	if err != nil {
		return in.finish(ctx, op, code, err)
	}
	if !existing.HasModule(moduleName) {
		in.registry.EnableBundle(name)
		return in.finish(ctx, op, ErrUninstallMissingInstalledModule, fmt.Errorf("module %s/%s not installed", name, moduleName))
	}
	if len(existing.Modules) == 1 {
		in.registry.EnableBundle(name)
		return in.Uninstall(ctx, name, userID, opts)
	}
	defer in.registry.EnableBundle(name)

	if u, ok := existing.UserInfo(userID); ok {
		op.notify.UID = u.UID
	}
	if !in.registry.UpdateBundleInstallState(ctx, name, types.UninstallStart) {
		return in.finish(ctx, op, ErrInstallStateError, fmt.Errorf("cannot start uninstall of %s", name))
	}
	if err := in.registry.RemoveModuleInfo(ctx, name, moduleName); err != nil {
		in.registry.UpdateBundleInstallState(ctx, name, types.UninstallFail)
		return in.finish(ctx, op, ErrInstallInternalError, err)
	}
	in.registry.UpdateBundleInstallState(ctx, name, types.InstallSuccess)
	return in.finish(ctx, op, ErrOK, nil)
}

// lookupForUninstall fetches and holds the record. On success the caller
// must release it with EnableBundle.
func (in *Installer) lookupForUninstall(name string, userID int32) (*types.InnerBundleInfo, Code, error) {
	if name == "" {
		return nil, ErrInstallParamError, fmt.Errorf("bundle name is required")
	}
	if !in.registry.HasUserID(userID) {
		return nil, ErrInstallUserNotExist, fmt.Errorf("user %d is not registered", userID)
	}
	existing, ok := in.registry.GetInnerBundleInfo(name, types.CurrentDeviceID)
	if !ok {
		return nil, ErrUninstallMissingInstalledBundle, fmt.Errorf("%s is not installed", name)
	}
	if !existing.HasUserInfo(userID) {
		in.registry.EnableBundle(name)
		return nil, ErrUninstallMissingInstalledBundle, fmt.Errorf("%s is not installed for user %d", name, userID)
	}
	if existing.IsSystemApp() && !existing.ApplicationInfo.Removable {
		in.registry.EnableBundle(name)
		return nil, ErrUninstallSystemApp, fmt.Errorf("%s is a non-removable system app", name)
	}
	return existing, ErrOK, nil
}

// afterRemoval updates side tables once a record is gone. Failures are
// logged and do not fail the uninstall.
func (in *Installer) afterRemoval(ctx context.Context, op *operation, name string, keepUsage bool) {
	if in.preinstall != nil {
		if found, err := in.preinstall.MarkUninstalled(ctx, name, true); err != nil {
			op.log.Warn("Failed to mark preinstall row uninstalled", zap.Error(err))
		} else if found {
			op.log.Debug("Preinstall row marked uninstalled")
		}
	}
	if in.usage != nil {
		if err := in.usage.OnBundleRemoved(ctx, name, keepUsage); err != nil {
			op.log.Warn("Failed to clear usage records", zap.Error(err))
		}
	}
}
